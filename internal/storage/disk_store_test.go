package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStoreUploadRemove(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/images")
	require.NoError(t, err)

	require.NoError(t, store.Upload(ctx, "17-abc.jpg", strings.NewReader("jpegdata")))

	data, err := os.ReadFile(filepath.Join(store.Root(), "17-abc.jpg"))
	require.NoError(t, err)
	require.Equal(t, "jpegdata", string(data))

	require.NoError(t, store.Remove(ctx, "17-abc.jpg"))
	require.Error(t, store.Remove(ctx, "17-abc.jpg"), "removing an absent object errors")
}

func TestDiskStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/images")
	require.NoError(t, err)

	require.NoError(t, store.Upload(ctx, "a.png", strings.NewReader("one")))
	require.NoError(t, store.Upload(ctx, "a.png", strings.NewReader("two")))

	data, err := os.ReadFile(filepath.Join(store.Root(), "a.png"))
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func TestDiskStorePublicURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/images/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/images/17-abc.jpg", store.PublicURL("17-abc.jpg"))
	require.Equal(t, "http://localhost:8080/images/17-abc.jpg", store.PublicURL("/17-abc.jpg"))
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080/images")
	require.NoError(t, err)

	err = store.Upload(ctx, "../escape.txt", strings.NewReader("nope"))
	require.Error(t, err)
}
