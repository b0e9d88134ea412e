package models

import "time"

// CreditBalance is the per-user membership entitlement. A nil ClassesRemaining
// means an unlimited plan; otherwise one credit is consumed per confirmed
// booking and refunded on cancellation.
type CreditBalance struct {
	UserID           string     `gorm:"primaryKey" json:"user_id"`
	MembershipID     string     `gorm:"not null" json:"membership_id"`
	ClassesRemaining *int       `json:"classes_remaining,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Unlimited reports whether the membership has no class count.
func (b *CreditBalance) Unlimited() bool {
	return b.ClassesRemaining == nil
}

// Usable reports whether the balance can pay for a booking at the given time.
func (b *CreditBalance) Usable(at time.Time) bool {
	if b.ExpiresAt != nil && !b.ExpiresAt.After(at) {
		return false
	}
	return b.ClassesRemaining == nil || *b.ClassesRemaining > 0
}
