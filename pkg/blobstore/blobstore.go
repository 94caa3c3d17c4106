// Package blobstore persists uploaded images and hands back a reference
// (URL or path) that is stored on the owning record.
package blobstore

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store is implemented by every blob backend.
type Store interface {
	// Put stores the content under a fresh name in folder and returns its reference.
	Put(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error)
	// Delete removes a previously stored blob. Unknown references are ignored.
	Delete(ctx context.Context, ref string) error
}

// objectName builds a collision free object name such as "boards/<uuid>.png".
func objectName(folder, ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	// keep only a plain extension, never path elements
	if strings.ContainsAny(ext, `/\`) || ext == "." {
		ext = ""
	}
	return path.Join(path.Clean("/"+folder)[1:], uuid.NewString()+ext)
}
