// Package storage persists task attachment files. The default backend is
// the local uploads/ directory served statically; a MinIO backend can be
// selected through configuration.
package storage

import (
	"context"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// Store saves and removes attachment blobs.
type Store interface {
	// Save writes the blob under objectName and returns the path to
	// persist on the task document.
	Save(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)

	// Remove deletes a previously saved blob. Removing a path that no
	// longer exists is not an error.
	Remove(ctx context.Context, path string) error
}

// ObjectName builds a collision-free stored name for an uploaded file.
func ObjectName(originalFilename string) string {
	return uuid.New().String() + filepath.Ext(originalFilename)
}
