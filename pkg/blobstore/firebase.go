package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// FirebaseStore keeps blobs in the Firebase (Cloud Storage) bucket of the project.
type FirebaseStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

var _ Store = (*FirebaseStore)(nil)

func NewFirebaseStore(bucket *storage.BucketHandle, bucketName string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName}
}

func (s *FirebaseStore) baseURL() string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/", s.bucketName)
}

// Put uploads the content and returns its public URL
func (s *FirebaseStore) Put(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error) {
	name := objectName(folder, ext)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload %s: %w", name, err)
	}
	return s.baseURL() + name, nil
}

// Delete removes the object behind ref
func (s *FirebaseStore) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, s.baseURL())
	if !ok || name == "" {
		return nil
	}
	err := s.bucket.Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
