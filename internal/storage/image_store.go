// Package storage holds the binary object store for dish images.  The
// contract is deliberately small: upload by path, delete by path, and
// derive a public URL for a path, all scoped to a dish-images namespace.
package storage

import (
	"context"
	"io"
)

// ImageStore stores dish images and hands out public URLs for them.
type ImageStore interface {
	// Upload writes the object at path, overwriting any previous content.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Remove deletes the object at path.  Removing an absent object is an
	// error; the caller decides whether that matters.
	Remove(ctx context.Context, path string) error
	// PublicURL derives the URL under which the object is served.
	PublicURL(path string) string
}
