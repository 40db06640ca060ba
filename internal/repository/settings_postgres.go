package repository

import (
	"database/sql"
	"fmt"
)

const whitelistEnabledKey = "whitelist_enabled"

type SettingsPostgres struct {
	db *sql.DB
}

func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db}
}

func (r *SettingsPostgres) WhitelistEnabled() (bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = $1`, whitelistEnabledKey).Scan(&value)
	if err == sql.ErrNoRows {
		// No row yet means the whitelist has never been toggled; enforce by default.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read whitelist flag: %w", err)
	}
	return value == "true", nil
}

func (r *SettingsPostgres) SetWhitelistEnabled(enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2
	`, whitelistEnabledKey, value)
	if err != nil {
		return fmt.Errorf("failed to persist whitelist flag: %w", err)
	}
	return nil
}
