package application

import (
	"context"

	"heimdall/internal/audit"
	"heimdall/internal/repository"
	"heimdall/pkg/sheets"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// ExternalAccount is what the verification client resolves a claimed Discord
// name to.
type ExternalAccount struct {
	ID   string
	Name string
}

// Verifier is the injected Discord-side client. Every call may block on
// network I/O and must be given a bounded context; the coordinator maps any
// error to an external-service result.
type Verifier interface {
	FindAccountByName(ctx context.Context, name string) (*ExternalAccount, error)
	IsMember(ctx context.Context, accountID string) (bool, error)
	HasRole(ctx context.Context, accountID, roleID string) (bool, error)
	SendDirectMessage(ctx context.Context, accountID, text string) error
}

type Service struct {
	Membership   *MembershipService
	Exclusions   *ExclusionService
	Links        *LinkService
	JoinAttempts *JoinAttemptService
	Gate         *GateService
	Reports      *ReportService
}

func NewService(repos *repository.Repository, auditLog *audit.Log, verifier Verifier,
	sheetsClient sheets.Client, ownerEmail string, opts LinkOptions, logger Logger) (*Service, error) {

	membership, err := NewMembershipService(repos.Member, repos.Settings, auditLog, logger)
	if err != nil {
		return nil, err
	}

	exclusions, err := NewExclusionService(repos.Exclusion, membership, auditLog, logger)
	if err != nil {
		return nil, err
	}

	joins, err := NewJoinAttemptService(repos.JoinAttempt, auditLog, logger)
	if err != nil {
		return nil, err
	}

	links := NewLinkService(membership, verifier, auditLog, opts, logger)

	return &Service{
		Membership:   membership,
		Exclusions:   exclusions,
		Links:        links,
		JoinAttempts: joins,
		Gate:         NewGateService(membership, exclusions, joins),
		Reports:      NewReportService(membership, exclusions, joins, sheetsClient, ownerEmail, logger),
	}, nil
}
