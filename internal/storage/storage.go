package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrInvalidReference = errors.New("invalid document reference")
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"

	documentsPrefix = "documents"
)

// Storage keeps uploaded ID images. References are opaque to callers and
// scoped to the uploading user.
type Storage interface {
	Store(ctx context.Context, owner uuid.UUID, data []byte, contentType string) (string, error)
	Retrieve(ctx context.Context, reference string) ([]byte, error)
}

func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocalStorage(cfg.BasePath)
	case TypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"application/pdf": ".pdf",
}

// IsAllowedContentType lists what can be stored as an ID document.
func IsAllowedContentType(contentType string) bool {
	_, ok := extensions[baseContentType(contentType)]
	return ok
}

func baseContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// newReference builds documents/<owner>/yyyy/mm/<uuid><ext>.
func newReference(owner uuid.UUID, now time.Time, contentType string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate document id failed: %w", err)
	}
	return path.Join(ownerPrefix(owner), now.Format("2006"), now.Format("01"), id.String()+extensions[baseContentType(contentType)]), nil
}

func ownerPrefix(owner uuid.UUID) string {
	return path.Join(documentsPrefix, owner.String())
}

// ValidateReference rejects references this package could not have issued.
func ValidateReference(reference string) error {
	clean := path.Clean(reference)
	if clean != reference || !strings.HasPrefix(clean, documentsPrefix+"/") || strings.Contains(clean, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}
	return nil
}

// OwnedBy reports whether reference is valid and was issued for owner.
func OwnedBy(reference string, owner uuid.UUID) bool {
	if owner == uuid.Nil || ValidateReference(reference) != nil {
		return false
	}
	return strings.HasPrefix(reference, ownerPrefix(owner)+"/")
}
