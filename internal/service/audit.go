package service

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
)

const auditPageSize = 100

type auditLogService struct {
	auditLogs     repository.AuditLogs
	verifications repository.Verifications
	reporter      AuditReporter
	pageSize      int
}

func newAuditLogService(auditLogs repository.AuditLogs, verifications repository.Verifications, reporter AuditReporter) *auditLogService {
	return &auditLogService{
		auditLogs:     auditLogs,
		verifications: verifications,
		reporter:      reporter,
		pageSize:      auditPageSize,
	}
}

// ListFor yields the audit trail oldest first, fetching one page at a time.
// Ranging over the sequence again starts over from the first entry. A fetch
// error is yielded once and ends the sequence.
func (s *auditLogService) ListFor(ctx context.Context, verificationID uuid.UUID) iter.Seq2[*domain.AuditLog, error] {
	return func(yield func(*domain.AuditLog, error) bool) {
		var cursor *domain.AuditCursor
		for {
			page, err := s.auditLogs.ListPage(ctx, verificationID, cursor, s.pageSize)
			if err != nil {
				yield(nil, fmt.Errorf("list audit logs failed: %w", err))
				return
			}

			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
			}

			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &domain.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

func (s *auditLogService) List(ctx context.Context, verificationID uuid.UUID) ([]*domain.AuditLog, error) {
	if _, err := s.verifications.GetOneByID(ctx, verificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification failed: %w", err)
	}

	entries := make([]*domain.AuditLog, 0)
	for entry, err := range s.ListFor(ctx, verificationID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *auditLogService) Report(ctx context.Context, verificationID uuid.UUID) ([]byte, error) {
	if s.reporter == nil {
		return nil, errors.New("audit reporter is not configured")
	}

	v, err := s.verifications.GetOneByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("get verification failed: %w", err)
	}

	entries, err := s.List(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	report, err := s.reporter.AuditReport(v, entries)
	if err != nil {
		return nil, fmt.Errorf("render audit report failed: %w", err)
	}

	return report, nil
}
