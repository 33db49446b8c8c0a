// Package router maps the HTTP surface onto the handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/handler"
	"github.com/iliyamo/restaurant-ratings/internal/middleware"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Restaurants *handler.RestaurantHandler
	Dishes      *handler.DishHandler
	Ratings     *handler.RatingHandler
	Cuisines    *handler.CuisineHandler
	Users       *handler.UserHandler
	Prefs       *handler.PrefsHandler
	ImageRoot   string // directory the public image route serves, "" disables it
	JWTSecret   string
}

// Register mounts every route.  /healthz and the auth endpoints are open;
// everything else under /v1 requires a valid access token.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	// Stored dish images are served statically under /images.
	if h.ImageRoot != "" {
		e.Static("/images", h.ImageRoot)
	}

	// Token issuance does not require an existing session.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	// Logout stays outside the JWT middleware so an expired access token
	// never blocks it; the handler checks credentials itself.
	auth.POST("/logout", h.Auth.Logout)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(h.JWTSecret))

	v1.GET("/me", h.Auth.Me)

	v1.GET("/restaurants", h.Restaurants.List)
	v1.POST("/restaurants", h.Restaurants.Create)
	v1.GET("/restaurants/:id", h.Restaurants.Get)
	v1.PUT("/restaurants/:id", h.Restaurants.Update)
	v1.DELETE("/restaurants/:id", h.Restaurants.Delete)
	v1.GET("/restaurants/:id/dishes", h.Restaurants.ListDishes)
	v1.POST("/restaurants/:id/dishes", h.Dishes.CreateDraft)

	v1.GET("/dishes/:id", h.Dishes.Get)
	v1.PUT("/dishes/:id", h.Dishes.Update)
	v1.DELETE("/dishes/:id", h.Dishes.Delete)
	v1.POST("/dishes/:id/image", h.Dishes.UploadImage)
	v1.DELETE("/dishes/:id/image", h.Dishes.DeleteImage)

	v1.GET("/dishes/:id/ratings", h.Ratings.ListByDish)
	v1.POST("/dishes/:id/ratings", h.Ratings.Create)
	v1.PUT("/ratings/:id", h.Ratings.Update)
	v1.DELETE("/ratings/:id", h.Ratings.Delete)

	v1.GET("/cuisines", h.Cuisines.List)
	v1.POST("/cuisines", h.Cuisines.Create)

	v1.GET("/users", h.Users.List)

	v1.POST("/session/start", h.Prefs.StartSession)
	v1.GET("/preferences", h.Prefs.Get)
	v1.PUT("/preferences/:key", h.Prefs.Put)
}
