package repository

import (
	"context"
	"fmt"

	"github.com/pawsitter/backend/internal/db"
	"github.com/pawsitter/backend/internal/domain"

	"github.com/jmoiron/sqlx"
)

type transactor struct {
	db *sqlx.DB
}

func newTransactor(db *sqlx.DB) *transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) (err error) {
	const op = "repository.transactor.WithinTx"

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx failed: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			if db.IsErrorCode(err, db.Deadlock, db.LockWaitTimeout) {
				err = fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
			}
		}
	}()

	repos := TxRepositories{
		Users:         newUserRepository(tx),
		Verifications: newVerificationRepository(tx),
		AuditLogs:     newAuditLogRepository(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit failed: %w", op, err)
	}

	return nil
}
