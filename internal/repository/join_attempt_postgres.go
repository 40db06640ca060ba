package repository

import (
	"database/sql"
	"fmt"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

type JoinAttemptPostgres struct {
	db *sql.DB
}

func NewJoinAttemptPostgres(db *sql.DB) *JoinAttemptPostgres {
	return &JoinAttemptPostgres{db: db}
}

func (r *JoinAttemptPostgres) LoadAll() ([]models.JoinAttempt, error) {
	rows, err := r.db.Query(`
		SELECT id, name, first_seen, last_seen, attempt_count, origin, message
		FROM join_attempts
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load join attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.JoinAttempt
	for rows.Next() {
		var a models.JoinAttempt
		if err := rows.Scan(&a.ID, &a.Name, &a.FirstSeen, &a.LastSeen,
			&a.Count, &a.Origin, &a.Message); err != nil {
			return nil, fmt.Errorf("failed to scan join attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *JoinAttemptPostgres) Upsert(attempt models.JoinAttempt) error {
	_, err := r.db.Exec(`
		INSERT INTO join_attempts (id, name, first_seen, last_seen, attempt_count, origin, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = $2,
			last_seen = $4,
			attempt_count = $5,
			origin = $6,
			message = $7
	`, attempt.ID, attempt.Name, attempt.FirstSeen, attempt.LastSeen,
		attempt.Count, attempt.Origin, attempt.Message)
	if err != nil {
		return fmt.Errorf("failed to upsert join attempt: %w", err)
	}
	return nil
}

func (r *JoinAttemptPostgres) Delete(id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM join_attempts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete join attempt: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
