// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialized and roll back by restoring a
// snapshot, which is enough to exercise the service layer without MySQL.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/internal/repository"
)

// Hooks run before the matching write. A non-nil error aborts the write.
type Hooks struct {
	BeforeAuditAppend        func(entry *domain.AuditLog) error
	BeforeVerificationUpdate func(v *domain.Verification) error
	BeforeUserUpdate         func(u *domain.User) error
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users         map[uuid.UUID]*domain.User
	verifications map[uuid.UUID]*domain.Verification
	auditLogs     []*domain.AuditLog

	hooks Hooks
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*domain.User),
		verifications: make(map[uuid.UUID]*domain.Verification),
	}
}

// SetHooks replaces the write hooks. Safe to call between operations.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Repositories returns the store behind the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:         (*userRepo)(s),
		Verifications: (*verificationRepo)(s),
		AuditLogs:     (*auditLogRepo)(s),
		Transactor:    (*transactor)(s),
	}
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(u)
}

// DeleteUser removes a user, leaving their verifications behind.
func (s *Store) DeleteUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// AuditLogs returns every audit row for verificationID in insertion order.
func (s *Store) AuditLogs(verificationID uuid.UUID) []*domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.AuditLog
	for _, e := range s.auditLogs {
		if e.VerificationID == verificationID {
			out = append(out, cloneAudit(e))
		}
	}
	return out
}

type snapshot struct {
	users         map[uuid.UUID]*domain.User
	verifications map[uuid.UUID]*domain.Verification
	auditLen      int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		users:         make(map[uuid.UUID]*domain.User, len(s.users)),
		verifications: make(map[uuid.UUID]*domain.Verification, len(s.verifications)),
		auditLen:      len(s.auditLogs),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, v := range s.verifications {
		snap.verifications[id] = cloneVerification(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.verifications = snap.verifications
	s.auditLogs = s.auditLogs[:snap.auditLen]
}

type transactor Store

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) (err error) {
	s := (*Store)(t)
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(ctx, repository.TxRepositories{
		Users:         (*userRepo)(s),
		Verifications: (*verificationRepo)(s),
		AuditLogs:     (*auditLogRepo)(s),
	})
}

type userRepo Store

func (r *userRepo) GetOneByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.GetOneByID(ctx, id)
}

func (r *userRepo) update(id uuid.UUID, mutate func(u *domain.User)) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrNotFound
	}
	next := cloneUser(u)
	mutate(next)
	if s.hooks.BeforeUserUpdate != nil {
		if err := s.hooks.BeforeUserUpdate(next); err != nil {
			return err
		}
	}
	next.UpdatedAt = time.Now()
	s.users[id] = next
	return nil
}

func (r *userRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.UserStatus) error {
	return r.update(id, func(u *domain.User) { u.Status = status })
}

func (r *userRepo) MarkContactVerified(_ context.Context, id uuid.UUID, channel domain.ContactChannel, at time.Time) error {
	if channel != domain.ContactChannelEmail && channel != domain.ContactChannelPhone {
		return domain.NewValidationError("unknown contact channel: " + string(channel))
	}
	return r.update(id, func(u *domain.User) {
		switch channel {
		case domain.ContactChannelEmail:
			if u.EmailVerifiedAt == nil {
				u.EmailVerifiedAt = &at
			}
		case domain.ContactChannelPhone:
			if u.PhoneVerifiedAt == nil {
				u.PhoneVerifiedAt = &at
			}
		}
	})
}

func (r *userRepo) UpdateEligibility(_ context.Context, user *domain.User) error {
	return r.update(user.ID, func(u *domain.User) {
		u.IDVerified = user.IDVerified
		u.IDVerifiedAt = user.IDVerifiedAt
		u.VerificationStatus = user.VerificationStatus
		u.CanAcceptBookings = user.CanAcceptBookings
		u.EligibilitySyncedAt = user.EligibilitySyncedAt
	})
}

type verificationRepo Store

func (r *verificationRepo) Create(_ context.Context, v *domain.Verification) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verifications[v.ID]; ok {
		return domain.ErrDuplicateEntry
	}
	if v.VendorSessionID != nil {
		for _, existing := range s.verifications {
			if existing.VendorSessionID != nil && *existing.VendorSessionID == *v.VendorSessionID {
				return domain.ErrDuplicateEntry
			}
		}
	}
	s.verifications[v.ID] = cloneVerification(v)
	return nil
}

func (r *verificationRepo) GetOneByID(_ context.Context, id uuid.UUID) (*domain.Verification, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVerification(v), nil
}

// GetOneByIDForUpdate relies on the transactor serializing transactions.
func (r *verificationRepo) GetOneByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	return r.GetOneByID(ctx, id)
}

func (r *verificationRepo) GetOneByVendorSessionID(_ context.Context, sessionID string) (*domain.Verification, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.verifications {
		if v.VendorSessionID != nil && *v.VendorSessionID == sessionID {
			return cloneVerification(v), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *verificationRepo) GetLatestByUserID(_ context.Context, userID uuid.UUID) (*domain.Verification, error) {
	list := r.sorted(func(v *domain.Verification) bool { return v.UserID == userID })
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return list[0], nil
}

func (r *verificationRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	return len(r.sorted(func(v *domain.Verification) bool { return v.UserID == userID })), nil
}

func (r *verificationRepo) Update(_ context.Context, v *domain.Verification) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.verifications[v.ID]
	if !ok || current.Version != v.Version {
		return domain.ErrVersionConflict
	}
	if s.hooks.BeforeVerificationUpdate != nil {
		if err := s.hooks.BeforeVerificationUpdate(v); err != nil {
			return err
		}
	}
	next := cloneVerification(v)
	next.Version++
	s.verifications[v.ID] = next
	v.Version = next.Version
	return nil
}

func (r *verificationRepo) List(_ context.Context, filter domain.VerificationFilter) ([]*domain.Verification, int64, error) {
	list := r.sorted(func(v *domain.Verification) bool {
		if filter.Status != nil && v.Status != *filter.Status {
			return false
		}
		if filter.UserID != nil && v.UserID != *filter.UserID {
			return false
		}
		return true
	})

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	total := int64(len(list))
	start := min((page-1)*limit, len(list))
	end := min(start+limit, len(list))
	return list[start:end], total, nil
}

// sorted returns matching records newest first, ties broken by id.
func (r *verificationRepo) sorted(match func(v *domain.Verification) bool) []*domain.Verification {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Verification
	for _, v := range s.verifications {
		if match(v) {
			out = append(out, cloneVerification(v))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Verification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareUUID(b.ID, a.ID)
	})
	return out
}

type auditLogRepo Store

func (r *auditLogRepo) Append(_ context.Context, entry *domain.AuditLog) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hooks.BeforeAuditAppend != nil {
		if err := s.hooks.BeforeAuditAppend(entry); err != nil {
			return err
		}
	}
	s.auditLogs = append(s.auditLogs, cloneAudit(entry))
	return nil
}

func (r *auditLogRepo) GetLatest(_ context.Context, verificationID uuid.UUID) (*domain.AuditLog, error) {
	entries := r.ordered(verificationID)
	if len(entries) == 0 {
		return nil, domain.ErrNotFound
	}
	return entries[len(entries)-1], nil
}

func (r *auditLogRepo) ExistsVendorDecision(_ context.Context, verificationID uuid.UUID, sessionID string, action domain.AuditAction) (bool, error) {
	for _, e := range (*Store)(r).AuditLogs(verificationID) {
		if e.AdminID != nil || e.Action != action {
			continue
		}
		if session, _ := e.Metadata[domain.AuditMetaVendorSessionID].(string); session == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *auditLogRepo) ListPage(_ context.Context, verificationID uuid.UUID, after *domain.AuditCursor, limit int) ([]*domain.AuditLog, error) {
	entries := r.ordered(verificationID)
	if after != nil {
		idx := 0
		for idx < len(entries) && !isAfter(entries[idx], after) {
			idx++
		}
		entries = entries[idx:]
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *auditLogRepo) ordered(verificationID uuid.UUID) []*domain.AuditLog {
	entries := (*Store)(r).AuditLogs(verificationID)
	slices.SortStableFunc(entries, func(a, b *domain.AuditLog) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})
	return entries
}

func isAfter(e *domain.AuditLog, c *domain.AuditCursor) bool {
	if e.CreatedAt.After(c.CreatedAt) {
		return true
	}
	return e.CreatedAt.Equal(c.CreatedAt) && compareUUID(e.ID, c.ID) > 0
}

func compareUUID(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneVerification(v *domain.Verification) *domain.Verification {
	c := *v
	c.ExtractedData = maps.Clone(v.ExtractedData)
	c.BadgesEarned = slices.Clone(v.BadgesEarned)
	return &c
}

func cloneAudit(e *domain.AuditLog) *domain.AuditLog {
	c := *e
	c.Metadata = maps.Clone(e.Metadata)
	return &c
}
