package application

import "time"

const (
	// Identity-link workflow
	defaultLinkCooldown = 30 * time.Second
	defaultCodeTTL      = 5 * time.Minute
	defaultMaxAttempts  = 5
	defaultCallTimeout  = 10 * time.Second
	linkCodeLength      = 6

	// Google Sheets roster publishing
	rosterSheetTitle = "Server roster"
	rosterClearRange = "A1:Z1000"
)
