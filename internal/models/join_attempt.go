package models

import (
	"time"

	"github.com/google/uuid"
)

// JoinAttempt accumulates repeated admission tries by a non-member. The row
// disappears once the identity is admitted or an operator dismisses it.
type JoinAttempt struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Count     int       `json:"count"`
	Origin    string    `json:"origin,omitempty"`
	Message   string    `json:"message,omitempty"`
}
