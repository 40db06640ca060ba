package config

import (
	"time"

	"heimdall/internal/repository"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Repo repository.Config `envPrefix:"REPO_"`

	DiscordToken   string   `env:"DISCORD_TOKEN" envDefault:""`
	GuildID        string   `env:"DISCORD_GUILD_ID" envDefault:""`
	RequiredRoleID string   `env:"DISCORD_REQUIRED_ROLE_ID" envDefault:""`
	AdminUserIDs   []string `env:"ADMIN_USER_IDS" envSeparator:"," envDefault:""`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"audit.log"`
	LogLevel     string `env:"LOGGER_LEVEL" envDefault:"debug"`

	LinkCooldown    time.Duration `env:"LINK_COOLDOWN" envDefault:"30s"`
	LinkCodeTTL     time.Duration `env:"LINK_CODE_TTL" envDefault:"5m"`
	LinkMaxAttempts int           `env:"LINK_MAX_ATTEMPTS" envDefault:"5"`
	VerifierTimeout time.Duration `env:"VERIFIER_TIMEOUT" envDefault:"10s"`

	SheetsCredentials string `env:"SHEETS_CREDENTIALS" envDefault:""`
	SpreadsheetID     string `env:"SPREADSHEET_ID" envDefault:""`
	GoogleOwnerEmail  string `env:"GOOGLE_OWNER_EMAIL" envDefault:""`
}

func ReadEnvConfig(cfg *Config) error {
	return env.Parse(cfg)
}
