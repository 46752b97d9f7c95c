package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pawsitter/backend/internal/db"
	"github.com/pawsitter/backend/internal/domain"
)

const verificationColumns = `
	id, user_id, attempt, document_type, document_number, document_image, is_philippine_id,
	extracted_data, vendor_session_id, vendor_session_url, verification_method, confidence_level,
	verification_score, status, verified_at, verified_by, rejection_reason, rejection_category,
	allow_resubmission, admin_notes, badges_earned, version, created_at, updated_at`

type verificationRepository struct {
	db sqlx.ExtContext
}

func newVerificationRepository(db sqlx.ExtContext) *verificationRepository {
	return &verificationRepository{
		db: db,
	}
}

func (r *verificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	const op = "repository.verification.Create"

	const query = `
	INSERT INTO verification
	(id, user_id, attempt, document_type, document_number, document_image, is_philippine_id,
	 extracted_data, vendor_session_id, vendor_session_url, status, allow_resubmission,
	 badges_earned, version, created_at, updated_at)
	VALUES (uuid_to_bin(?), uuid_to_bin(?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.UserID,
		v.Attempt,
		v.DocumentType,
		v.DocumentNumber,
		v.DocumentImage,
		v.IsPhilippineID,
		v.ExtractedData,
		v.VendorSessionID,
		v.VendorSessionURL,
		v.Status,
		v.AllowResubmission,
		v.BadgesEarned,
		v.Version,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		if db.IsErrorCode(err, db.DuplicateEntry) {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("%s: insert verification failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows != 1 {
		return fmt.Errorf("%s: expected 1 row affected, got %d", op, rows)
	}

	return nil
}

func (r *verificationRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	return r.getOne(ctx, "repository.verification.GetOneByID",
		`SELECT `+verificationColumns+` FROM verification WHERE id = uuid_to_bin(?)`, id)
}

func (r *verificationRepository) GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	return r.getOne(ctx, "repository.verification.GetOneByIDForUpdate",
		`SELECT `+verificationColumns+` FROM verification WHERE id = uuid_to_bin(?) FOR UPDATE`, id)
}

func (r *verificationRepository) GetOneByVendorSessionID(ctx context.Context, sessionID string) (*domain.Verification, error) {
	return r.getOne(ctx, "repository.verification.GetOneByVendorSessionID",
		`SELECT `+verificationColumns+` FROM verification WHERE vendor_session_id = ?`, sessionID)
}

func (r *verificationRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.Verification, error) {
	return r.getOne(ctx, "repository.verification.GetLatestByUserID",
		`SELECT `+verificationColumns+` FROM verification WHERE user_id = uuid_to_bin(?) ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
}

func (r *verificationRepository) getOne(ctx context.Context, op string, query string, args ...any) (*domain.Verification, error) {
	var v domain.Verification
	if err := sqlx.GetContext(ctx, r.db, &v, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select verification failed: %w", op, err)
	}

	return &v, nil
}

func (r *verificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM verification WHERE user_id = uuid_to_bin(?)`

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, userID); err != nil {
		return 0, fmt.Errorf("repository.verification.CountByUserID: count failed: %w", err)
	}

	return count, nil
}

func (r *verificationRepository) Update(ctx context.Context, v *domain.Verification) error {
	const op = "repository.verification.Update"

	const query = `
	UPDATE verification SET
		document_type = ?, extracted_data = ?, verification_method = ?, confidence_level = ?,
		verification_score = ?, status = ?, verified_at = ?, verified_by = uuid_to_bin(?),
		rejection_reason = ?, rejection_category = ?, allow_resubmission = ?, admin_notes = ?,
		badges_earned = ?, version = version + 1, updated_at = ?
	WHERE id = uuid_to_bin(?) AND version = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		v.DocumentType,
		v.ExtractedData,
		v.VerificationMethod,
		v.ConfidenceLevel,
		v.VerificationScore,
		v.Status,
		v.VerifiedAt,
		v.VerifiedBy,
		v.RejectionReason,
		v.RejectionCategory,
		v.AllowResubmission,
		v.AdminNotes,
		v.BadgesEarned,
		v.UpdatedAt,
		v.ID,
		v.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: update verification failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows != 1 {
		return domain.ErrVersionConflict
	}

	v.Version++

	return nil
}

func (r *verificationRepository) List(ctx context.Context, filter domain.VerificationFilter) ([]*domain.Verification, int64, error) {
	const op = "repository.verification.List"

	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.UserID != nil {
		where = append(where, "user_id = uuid_to_bin(?)")
		args = append(args, *filter.UserID)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM verification"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: count verifications failed: %w", op, err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	query := "SELECT " + verificationColumns + " FROM verification" + whereClause +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	verifications := make([]*domain.Verification, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db, &verifications, query, append(args, limit, (page-1)*limit)...); err != nil {
		return nil, 0, fmt.Errorf("%s: select verifications failed: %w", op, err)
	}

	return verifications, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
