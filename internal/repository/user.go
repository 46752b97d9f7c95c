package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/db"
	"github.com/pawsitter/backend/internal/domain"

	"github.com/jmoiron/sqlx"
)

type userRepository struct {
	db sqlx.ExtContext
}

func newUserRepository(db sqlx.ExtContext) *userRepository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `
	id, first_name, last_name, email, phone_number, role, status, email_verified_at, phone_verified_at,
	id_verified, id_verified_at, verification_status, can_accept_bookings, eligibility_synced_at,
	created_at, updated_at, deleted_at`

func (r *userRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM user WHERE id = uuid_to_bin(?) AND deleted_at IS NULL`, id)
}

func (r *userRepository) GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM user WHERE id = uuid_to_bin(?) AND deleted_at IS NULL FOR UPDATE`, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := sqlx.GetContext(ctx, r.db, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from user by id failed: %w", err)
	}

	return &user, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	const query = `
	UPDATE user SET status = ?, updated_at = NOW(6) WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;
	`

	return r.execOne(ctx, "repository.user.UpdateStatus", query, status, id)
}

func (r *userRepository) MarkContactVerified(ctx context.Context, id uuid.UUID, channel domain.ContactChannel, at time.Time) error {
	var query string
	switch channel {
	case domain.ContactChannelEmail:
		query = `UPDATE user SET email_verified_at = COALESCE(email_verified_at, ?), updated_at = NOW(6) WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;`
	case domain.ContactChannelPhone:
		query = `UPDATE user SET phone_verified_at = COALESCE(phone_verified_at, ?), updated_at = NOW(6) WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;`
	default:
		return domain.NewValidationError("unknown contact channel: " + string(channel))
	}

	return r.execOne(ctx, "repository.user.MarkContactVerified", query, at, id)
}

func (r *userRepository) UpdateEligibility(ctx context.Context, user *domain.User) error {
	const query = `
	UPDATE user SET
		id_verified = ?,
		id_verified_at = ?,
		verification_status = ?,
		can_accept_bookings = ?,
		eligibility_synced_at = ?,
		updated_at = NOW(6)
	WHERE id = uuid_to_bin(?) AND deleted_at IS NULL;
	`

	return r.execOne(ctx, "repository.user.UpdateEligibility", query,
		user.IDVerified,
		user.IDVerifiedAt,
		user.VerificationStatus,
		user.CanAcceptBookings,
		user.EligibilitySyncedAt,
		user.ID,
	)
}

// execOne treats zero matched rows as a missing user. MySQL reports matched
// rather than changed rows because the DSN sets clientFoundRows.
func (r *userRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		// MySQL has already rolled the transaction back on these.
		if db.IsErrorCode(err, db.Deadlock, db.LockWaitTimeout) {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("%s: update user failed: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected failed: %w", op, err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
