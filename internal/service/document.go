package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
	"github.com/pawsitter/backend/internal/storage"
)

type documentService struct {
	storage       storage.Storage
	verifications repository.Verifications
}

func newDocumentService(s storage.Storage, verifications repository.Verifications) *documentService {
	return &documentService{
		storage:       s,
		verifications: verifications,
	}
}

// Upload stores an ID image and returns the reference to submit with it.
func (s *documentService) Upload(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	if !storage.IsAllowedContentType(contentType) {
		return "", ErrUnsupportedContentType
	}

	ref, err := s.storage.Store(ctx, userID, data, contentType)
	if err != nil {
		return "", fmt.Errorf("store document failed: %w", err)
	}

	return ref, nil
}

func (s *documentService) Download(ctx context.Context, verificationID uuid.UUID) ([]byte, error) {
	v, err := s.verifications.GetOneByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification failed: %w", err)
	}

	data, err := s.storage.Retrieve(ctx, v.DocumentImage)
	if err != nil {
		return nil, fmt.Errorf("retrieve document failed: %w", err)
	}

	return data, nil
}
