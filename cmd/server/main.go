package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-ratings/internal/config"
	"github.com/iliyamo/restaurant-ratings/internal/database"
	"github.com/iliyamo/restaurant-ratings/internal/handler"
	"github.com/iliyamo/restaurant-ratings/internal/prefs"
	"github.com/iliyamo/restaurant-ratings/internal/queue"
	"github.com/iliyamo/restaurant-ratings/internal/repository"
	"github.com/iliyamo/restaurant-ratings/internal/router"
	"github.com/iliyamo/restaurant-ratings/internal/service"
	"github.com/iliyamo/restaurant-ratings/internal/service/queue_publisher"
	"github.com/iliyamo/restaurant-ratings/internal/storage"
	"github.com/iliyamo/restaurant-ratings/internal/validate"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database failed", zap.Error(err))
	}
	defer db.Close()

	// Preferences live in Redis; without it they fall back to process
	// memory and stop surviving restarts.
	var prefStore prefs.Store
	if client := config.NewRedisClient(); client != nil {
		prefStore = prefs.NewRedisStore(client)
	} else {
		logger.Warn("redis unavailable, using in-memory preference store")
		prefStore = prefs.NewMemoryStore()
	}
	session := prefs.NewSession(prefStore)

	restaurantRepo := repository.NewRestaurantRepo(db)
	cuisineRepo := repository.NewCuisineRepo(db)
	dishRepo := repository.NewDishRepo(db)
	ratingRepo := repository.NewRatingRepo(db)
	userRepo := repository.NewUserRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	images, err := storage.NewDiskStore(cfg.ImageDir, cfg.ImageBaseURL)
	if err != nil {
		logger.Fatal("init image store failed", zap.Error(err))
	}

	publisher := queue_publisher.New(logger)
	dishService := service.NewDishService(dishRepo, ratingRepo, userRepo,
		session, service.NewWriteQueue(), publisher, logger)

	// The consumer tails rating.recorded events into the activity log.
	go func() {
		if err := queue.StartRatingConsumer(logger); err != nil {
			logger.Warn("rating consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, accountRepo, tokenRepo),
		Restaurants: handler.NewRestaurantHandler(restaurantRepo, dishRepo, ratingRepo, userRepo, cuisineRepo, session),
		Dishes:      handler.NewDishHandler(restaurantRepo, dishRepo, ratingRepo, dishService, images),
		Ratings:     handler.NewRatingHandler(dishRepo, ratingRepo, dishService),
		Cuisines:    handler.NewCuisineHandler(cuisineRepo),
		Users:       handler.NewUserHandler(userRepo),
		Prefs:       handler.NewPrefsHandler(session),
		ImageRoot:   images.Root(),
		JWTSecret:   cfg.JWTSecret,
	})

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
