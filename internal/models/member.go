package models

import (
	"time"

	"github.com/google/uuid"
)

type MemberEntry struct {
	ID      uuid.UUID     `json:"id"`
	Name    string        `json:"name"`
	AddedBy Actor         `json:"added_by"`
	AddedAt time.Time     `json:"added_at"`
	Reason  string        `json:"reason,omitempty"`
	Link    *ExternalLink `json:"link,omitempty"`
}

// ExternalLink ties a member to a Discord account. At most one per member;
// a verified external account may not be attached to a second member.
type ExternalLink struct {
	ExternalID   string     `json:"external_id"`
	ExternalName string     `json:"external_name"`
	Verified     bool       `json:"verified"`
	LinkedAt     time.Time  `json:"linked_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}
