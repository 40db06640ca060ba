package repository

import (
	"database/sql"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

// Member persists the admitted-identity set. Upsert and Delete for a single
// key are atomic with respect to concurrent calls for the same key; the
// caller owns any cross-entry invariants.
type Member interface {
	LoadAll() ([]models.MemberEntry, error)
	Upsert(entry models.MemberEntry) error
	Delete(id uuid.UUID) (bool, error)
}

type Exclusion interface {
	LoadAll() ([]models.ExclusionEntry, error)
	Upsert(entry models.ExclusionEntry) error
	Delete(id uuid.UUID) (bool, error)
}

type JoinAttempt interface {
	LoadAll() ([]models.JoinAttempt, error)
	Upsert(attempt models.JoinAttempt) error
	Delete(id uuid.UUID) (bool, error)
}

// Settings stores the single global whitelist flag. Reads and writes are
// atomic; the hot read path is cached by the service layer, not here.
type Settings interface {
	WhitelistEnabled() (bool, error)
	SetWhitelistEnabled(enabled bool) error
}

type Repository struct {
	Member
	Exclusion
	JoinAttempt
	Settings
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Member:      NewMemberPostgres(db),
		Exclusion:   NewExclusionPostgres(db),
		JoinAttempt: NewJoinAttemptPostgres(db),
		Settings:    NewSettingsPostgres(db),
		db:          db,
	}
}

// NewMemoryRepository backs every store with in-process maps. Used by tests
// and as a fallback when no database is configured.
func NewMemoryRepository() *Repository {
	return &Repository{
		Member:      NewMemberMemory(),
		Exclusion:   NewExclusionMemory(),
		JoinAttempt: NewJoinAttemptMemory(),
		Settings:    NewSettingsMemory(true),
	}
}
