package domain

import "time"

// Eligibility is the projection of verification and account state onto a user.
type Eligibility struct {
	VerificationStatus *VerificationStatus
	IDVerified         bool
	IDVerifiedAt       *time.Time
	CanAcceptBookings  bool
}

// DeriveEligibility is the only place the booking gate is computed. latest is
// the user's most recent verification, nil when they never submitted one.
func DeriveEligibility(user *User, latest *Verification) Eligibility {
	var e Eligibility
	if latest != nil {
		status := latest.Status
		e.VerificationStatus = &status
		if status == VerificationStatusApproved {
			e.IDVerified = true
			e.IDVerifiedAt = latest.VerifiedAt
		}
	}
	e.CanAcceptBookings = user.Role == UserRoleSitter &&
		user.Status == UserStatusActive &&
		user.ContactVerified() &&
		e.IDVerified
	return e
}

// Apply copies the projection onto the user.
func (e Eligibility) Apply(user *User, now time.Time) {
	user.VerificationStatus = e.VerificationStatus
	user.IDVerified = e.IDVerified
	user.IDVerifiedAt = e.IDVerifiedAt
	user.CanAcceptBookings = e.CanAcceptBookings
	user.EligibilitySyncedAt = &now
}
