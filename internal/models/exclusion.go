package models

import (
	"time"

	"github.com/google/uuid"
)

// ExclusionEntry denies access regardless of membership. A nil ExpiresAt
// means the entry is permanent.
type ExclusionEntry struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IssuedBy  Actor      `json:"issued_by"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason"`
}

// ActiveAt reports whether the entry still denies access at the given time.
func (e *ExclusionEntry) ActiveAt(now time.Time) bool {
	if e == nil {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}
