package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pawsitter/backend/internal/domain"
)

const auditLogColumns = `
	id, verification_id, admin_id, action, reason, confidence_level, rejection_category,
	ip_address, user_agent, metadata, created_at`

type auditLogRepository struct {
	db sqlx.ExtContext
}

func newAuditLogRepository(db sqlx.ExtContext) *auditLogRepository {
	return &auditLogRepository{
		db: db,
	}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLog) error {
	const op = "repository.auditLog.Append"

	const query = `
	INSERT INTO verification_audit_log
	(id, verification_id, admin_id, action, reason, confidence_level, rejection_category,
	 ip_address, user_agent, metadata, created_at)
	VALUES (uuid_to_bin(?), uuid_to_bin(?), uuid_to_bin(?), ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.VerificationID,
		entry.AdminID,
		entry.Action,
		entry.Reason,
		entry.ConfidenceLevel,
		entry.RejectionCategory,
		entry.IPAddress,
		entry.UserAgent,
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: insert audit log failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *auditLogRepository) GetLatest(ctx context.Context, verificationID uuid.UUID) (*domain.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM verification_audit_log
	WHERE verification_id = uuid_to_bin(?)
	ORDER BY created_at DESC, id DESC LIMIT 1`

	var entry domain.AuditLog
	if err := sqlx.GetContext(ctx, r.db, &entry, query, verificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repository.auditLog.GetLatest: select failed: %w", err)
	}

	return &entry, nil
}

func (r *auditLogRepository) ExistsVendorDecision(ctx context.Context, verificationID uuid.UUID, sessionID string, action domain.AuditAction) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM verification_audit_log
		WHERE verification_id = uuid_to_bin(?)
		  AND action = ?
		  AND admin_id IS NULL
		  AND JSON_UNQUOTE(JSON_EXTRACT(metadata, '$.vendor_session_id')) = ?
	)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, verificationID, action, sessionID); err != nil {
		return false, fmt.Errorf("repository.auditLog.ExistsVendorDecision: select failed: %w", err)
	}

	return exists, nil
}

func (r *auditLogRepository) ListPage(ctx context.Context, verificationID uuid.UUID, after *domain.AuditCursor, limit int) ([]*domain.AuditLog, error) {
	const op = "repository.auditLog.ListPage"

	query := `SELECT ` + auditLogColumns + ` FROM verification_audit_log WHERE verification_id = uuid_to_bin(?)`
	args := []any{verificationID}

	if after != nil {
		query += ` AND (created_at > ? OR (created_at = ? AND id > uuid_to_bin(?)))`
		args = append(args, after.CreatedAt, after.CreatedAt, after.ID)
	}

	query += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	entries := make([]*domain.AuditLog, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("%s: select failed: %w", op, err)
	}

	return entries, nil
}
