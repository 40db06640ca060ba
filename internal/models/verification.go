package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationRequest is a live one-time challenge tying a member to the
// Discord account they claimed. At most one per identity; cleared on success,
// expiry, exhausted attempts, or an explicit reset.
type VerificationRequest struct {
	ID                uuid.UUID `json:"id"`
	ExternalID        string    `json:"external_id"`
	ExternalName      string    `json:"external_name"`
	Code              string    `json:"code"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	RemainingAttempts int       `json:"remaining_attempts"`
}

func (r *VerificationRequest) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
