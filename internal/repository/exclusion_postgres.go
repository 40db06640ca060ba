package repository

import (
	"database/sql"
	"fmt"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

type ExclusionPostgres struct {
	db *sql.DB
}

func NewExclusionPostgres(db *sql.DB) *ExclusionPostgres {
	return &ExclusionPostgres{db: db}
}

func (r *ExclusionPostgres) LoadAll() ([]models.ExclusionEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, name, issued_by_kind, issued_by_id, issued_at, expires_at, reason
		FROM exclusions
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}
	defer rows.Close()

	var entries []models.ExclusionEntry
	for rows.Next() {
		var (
			entry   models.ExclusionEntry
			actorID uuid.NullUUID
			expires sql.NullTime
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.IssuedBy.Kind,
			&actorID, &entry.IssuedAt, &expires, &entry.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		if actorID.Valid {
			entry.IssuedBy.ID = actorID.UUID
		}
		if expires.Valid {
			t := expires.Time
			entry.ExpiresAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ExclusionPostgres) Upsert(entry models.ExclusionEntry) error {
	var expires sql.NullTime
	if entry.ExpiresAt != nil {
		expires = sql.NullTime{Time: *entry.ExpiresAt, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO exclusions (id, name, issued_by_kind, issued_by_id, issued_at, expires_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = $2,
			issued_by_kind = $3,
			issued_by_id = $4,
			issued_at = $5,
			expires_at = $6,
			reason = $7
	`, entry.ID, entry.Name, entry.IssuedBy.Kind, actorIDValue(entry.IssuedBy),
		entry.IssuedAt, expires, entry.Reason)
	if err != nil {
		return fmt.Errorf("failed to upsert exclusion: %w", err)
	}
	return nil
}

func (r *ExclusionPostgres) Delete(id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM exclusions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete exclusion: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
