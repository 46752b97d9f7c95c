package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleOwner  UserRole = "owner"
	UserRoleSitter UserRole = "sitter"
	UserRoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(s); st {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return st, nil
	default:
		return "", ErrInvalidUserStatus
	}
}

type User struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	FirstName       sql.NullString `db:"first_name" json:"first_name"`
	LastName        sql.NullString `db:"last_name" json:"last_name"`
	Email           sql.NullString `db:"email" json:"email"`
	PhoneNumber     sql.NullString `db:"phone_number" json:"phone_number"`
	Role            UserRole       `db:"role" json:"role"`
	Status          UserStatus     `db:"status" json:"status"`
	EmailVerifiedAt *time.Time     `db:"email_verified_at" json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time     `db:"phone_verified_at" json:"phone_verified_at,omitempty"`

	// Eligibility projection, written only by the decision engine.
	IDVerified          bool                `db:"id_verified" json:"id_verified"`
	IDVerifiedAt        *time.Time          `db:"id_verified_at" json:"id_verified_at,omitempty"`
	VerificationStatus  *VerificationStatus `db:"verification_status" json:"verification_status,omitempty"`
	CanAcceptBookings   bool                `db:"can_accept_bookings" json:"can_accept_bookings"`
	EligibilitySyncedAt *time.Time          `db:"eligibility_synced_at" json:"eligibility_synced_at,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ContactVerified requires both email and phone to be confirmed.
func (u *User) ContactVerified() bool {
	return u.EmailVerifiedAt != nil && u.PhoneVerifiedAt != nil
}

func (u *User) FullName() (first, last string) {
	return u.FirstName.String, u.LastName.String
}

type ContactChannel string

const (
	ContactChannelEmail ContactChannel = "email"
	ContactChannelPhone ContactChannel = "phone"
)
