package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

type MemberPostgres struct {
	db *sql.DB
}

func NewMemberPostgres(db *sql.DB) *MemberPostgres {
	return &MemberPostgres{db: db}
}

func (r *MemberPostgres) LoadAll() ([]models.MemberEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, name, added_by_kind, added_by_id, added_at, reason, link
		FROM members
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	var entries []models.MemberEntry
	for rows.Next() {
		var (
			entry   models.MemberEntry
			actorID uuid.NullUUID
			rawLink []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.AddedBy.Kind,
			&actorID, &entry.AddedAt, &entry.Reason, &rawLink); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if actorID.Valid {
			entry.AddedBy.ID = actorID.UUID
		}
		if len(rawLink) > 0 {
			var link models.ExternalLink
			if err := json.Unmarshal(rawLink, &link); err != nil {
				return nil, fmt.Errorf("failed to decode link for %s: %w", entry.ID, err)
			}
			entry.Link = &link
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *MemberPostgres) Upsert(entry models.MemberEntry) error {
	var rawLink []byte
	if entry.Link != nil {
		var err error
		rawLink, err = json.Marshal(entry.Link)
		if err != nil {
			return fmt.Errorf("failed to encode link: %w", err)
		}
	}

	_, err := r.db.Exec(`
		INSERT INTO members (id, name, added_by_kind, added_by_id, added_at, reason, link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = $2,
			added_by_kind = $3,
			added_by_id = $4,
			added_at = $5,
			reason = $6,
			link = $7
	`, entry.ID, entry.Name, entry.AddedBy.Kind, actorIDValue(entry.AddedBy),
		entry.AddedAt, entry.Reason, rawLink)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func (r *MemberPostgres) Delete(id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func actorIDValue(actor models.Actor) uuid.NullUUID {
	if actor.Kind != models.ActorPlayer {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: actor.ID, Valid: true}
}
