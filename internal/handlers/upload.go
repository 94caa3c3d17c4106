package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/pkg/blobstore"
	"github.com/onsil/backend/pkg/logger"
)

const boardImageFolder = "boards"

// ImageUploader validates uploaded images and hands them to the blob store
type ImageUploader struct {
	store        blobstore.Store
	maxBytes     int64
	allowedTypes []string
}

func NewImageUploader(store blobstore.Store, maxBytes int64, allowedTypes []string) *ImageUploader {
	return &ImageUploader{store: store, maxBytes: maxBytes, allowedTypes: allowedTypes}
}

// FromRequest stores the optional "image" part of a multipart request.
// It returns "" when the request carries no image.
func (u *ImageUploader) FromRequest(c echo.Context) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", badRequest("Invalid image part")
	}
	return u.Save(c.Request().Context(), fh)
}

// Save sniffs the file content, enforces the size and type limits and uploads it.
func (u *ImageUploader) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return "", badRequest(fmt.Sprintf("Image exceeds %d bytes", u.maxBytes))
	}

	file, err := fh.Open()
	if err != nil {
		return "", badRequest("Cannot read image")
	}
	defer file.Close()

	limit := u.maxBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", badRequest("Cannot read image")
	}
	if int64(len(data)) > limit {
		return "", badRequest(fmt.Sprintf("Image exceeds %d bytes", limit))
	}

	mtype := mimetype.Detect(data)
	if !u.allowed(mtype) {
		return "", badRequest(fmt.Sprintf("Unsupported image type %s", mtype.String()))
	}

	ref, err := u.store.Put(ctx, boardImageFolder, mtype.Extension(), mtype.String(), bytes.NewReader(data))
	if err != nil {
		logger.ErrorWithFields("image upload failed", logger.Fields{"filename": fh.Filename, "error": err.Error()})
		return "", echo.NewHTTPError(http.StatusBadGateway, errorBody("UPLOAD_FAILED", "Image upload failed"))
	}
	return ref, nil
}

// Discard removes an image whose owning record was never written
func (u *ImageUploader) Discard(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := u.store.Delete(ctx, ref); err != nil {
		logger.WarnWithFields("orphan image cleanup failed", logger.Fields{"image": ref, "error": err.Error()})
	}
}

func (u *ImageUploader) allowed(mtype *mimetype.MIME) bool {
	for _, t := range u.allowedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}
