// Package attach implements the photo attachment pipeline: validation, key
// generation, and upload to an object storage backend.
package attach

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

// MaxPhotoBytes is the upload size ceiling for photo attachments.
const MaxPhotoBytes = 8 << 20 // 8 MiB

// ValidatePhoto checks the constraints enforced before any upload is
// attempted: the blob must be a non-empty image no larger than MaxPhotoBytes.
func ValidatePhoto(photo model.PhotoBlob) error {
	if len(photo.Data) == 0 {
		return fmt.Errorf("%w: empty photo", common.ErrInvalidPhoto)
	}
	if len(photo.Data) > MaxPhotoBytes {
		return fmt.Errorf("%w: photo is %d bytes, limit is %d", common.ErrInvalidPhoto, len(photo.Data), MaxPhotoBytes)
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return fmt.Errorf("%w: unsupported content type %q", common.ErrInvalidPhoto, photo.ContentType)
	}
	return nil
}

// Pipeline uploads validated photos and removes them on record deletion.
type Pipeline struct {
	store  service.ObjectStore
	logger *slog.Logger
}

// NewPipeline creates an attachment pipeline over the given object store.
func NewPipeline(store service.ObjectStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger}
}

// Attach validates and uploads a photo, returning its public URL. Keys are
// namespaced by record kind with a random unique suffix so concurrent
// captures cannot collide. Upload failure is reported as
// common.ErrAttachmentFailed; callers persist the record without a photo
// rather than failing the capture.
func (p *Pipeline) Attach(ctx context.Context, photo model.PhotoBlob, kind model.RecordKind) (string, error) {
	if err := ValidatePhoto(photo); err != nil {
		return "", err
	}

	key := storageKey(kind, photo)

	var publicURL string
	err := common.WithRetry(ctx, func() error {
		var uploadErr error
		publicURL, uploadErr = p.store.Upload(ctx, key, photo.Data, photo.ContentType)
		return uploadErr
	}, common.RetryOptions{MaxAttempts: 2})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrAttachmentFailed, err)
	}

	p.logger.Debug("photo uploaded", "key", key, "bytes", len(photo.Data))
	return publicURL, nil
}

// Detach removes the remote object behind a photo URL. Deletion is
// best-effort and idempotent: a missing remote object or a failed delete is
// logged and swallowed so record deletion is never blocked.
func (p *Pipeline) Detach(ctx context.Context, photoURL string) error {
	key, err := keyFromURL(photoURL)
	if err != nil {
		p.logger.Warn("cannot derive storage key from photo url", "url", photoURL, "error", err)
		return nil
	}

	if err := p.store.Delete(ctx, key); err != nil {
		p.logger.Warn("photo delete failed", "key", key, "error", err)
	}
	return nil
}

// storageKey builds "category/{randomId}.{ext}" for a photo.
func storageKey(kind model.RecordKind, photo model.PhotoBlob) string {
	ext := sanitizeExt(photo.Filename)
	if ext == "" {
		ext = extFromContentType(photo.ContentType)
	}
	return fmt.Sprintf("%s/%s.%s", kind, uuid.NewString(), ext)
}

// sanitizeExt extracts a filename extension reduced to lowercase alphanumerics.
func sanitizeExt(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	ext = strings.ToLower(ext)

	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, ext)
}

// extFromContentType falls back to the media subtype when the filename has no
// usable extension.
func extFromContentType(contentType string) string {
	sub := strings.TrimPrefix(contentType, "image/")
	if sub == contentType || sub == "" {
		return "bin"
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sanitizeExt("x." + sub)
}

// keyFromURL recovers the "category/file" storage key from a public URL.
func keyFromURL(photoURL string) (string, error) {
	u, err := url.Parse(photoURL)
	if err != nil {
		return "", err
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("url path %q has no key segments", u.Path)
	}

	return path.Join(segments[len(segments)-2], segments[len(segments)-1]), nil
}
