package main

import (
	"context"
	"embed"

	"heimdall/internal/application"
	"heimdall/internal/audit"
	"heimdall/internal/delivery/discord"
	httpapi "heimdall/internal/delivery/http"
	"heimdall/internal/repository"
	"heimdall/pkg/config"
	"heimdall/pkg/logger"
	service "heimdall/pkg/services"
	"heimdall/pkg/sheets"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func main() {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.ReadEnvConfig(&cfg); err != nil {
		panic(err)
	}

	log := logger.NewLogger(&logger.Config{Level: cfg.LogLevel})

	db, err := repository.NewPostgresDB(&cfg.Repo)
	if err != nil {
		log.Error("failed to init db: %s", err.Error())
		return
	}
	defer db.Close()

	log.Info("Running migrations...")
	if err := repository.RunMigrations(db, migrationFS); err != nil {
		log.Error("failed to run migrations: %s", err.Error())
		return
	}
	log.Info("Migrations applied successfully")

	repos := repository.NewRepository(db)

	sink, err := audit.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		log.Error("failed to open audit log: %s", err.Error())
		return
	}
	defer sink.Close()
	auditLog := audit.NewLog(sink, log)

	var sheetsClient sheets.Client
	if cfg.SheetsCredentials != "" {
		client, err := sheets.NewGoogleSheetsClient(cfg.SheetsCredentials, cfg.SpreadsheetID)
		if err != nil {
			log.Error("failed to init sheets client: %s", err.Error())
		} else {
			sheetsClient = client
		}
	}

	bot := discord.NewBot(&cfg, log)

	services, err := application.NewService(repos, auditLog, bot.Verifier(), sheetsClient,
		cfg.GoogleOwnerEmail, application.LinkOptions{
			Cooldown:       cfg.LinkCooldown,
			CodeTTL:        cfg.LinkCodeTTL,
			MaxAttempts:    cfg.LinkMaxAttempts,
			CallTimeout:    cfg.VerifierTimeout,
			RequiredRoleID: cfg.RequiredRoleID,
		}, log)
	if err != nil {
		log.Error("failed to init services: %s", err.Error())
		return
	}
	bot.Attach(services)

	api := httpapi.NewServer(cfg.HTTPAddr, services, log)

	manager := service.NewManager(log)
	manager.AddService(bot, api)

	if err := manager.Run(context.Background()); err != nil {
		log.Error("failed to run services: %s", err.Error())
		return
	}
	log.Info("Stopped")
}
