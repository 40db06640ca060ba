package application

import "heimdall/internal/models"

// Result sets are closed: presentation code switches over them exhaustively
// instead of parsing error strings.

type LinkRequestStatus int

const (
	LinkCodeSent LinkRequestStatus = iota
	LinkServiceDisabled
	LinkNotAMember
	LinkExternalUserNotFound
	LinkNotInCommunity
	LinkMissingRole
	LinkAlreadyLinked
	LinkExternalAccountInUse
	LinkRequestPending
	LinkOnCooldown
	LinkDeliveryFailed
	LinkExternalServiceError
)

type LinkRequestResult struct {
	Status LinkRequestStatus
	// Reason carries delivery-failure or external-service detail for the two
	// statuses that have one. It is operator-facing, never shown to players.
	Reason string
}

type ConfirmStatus int

const (
	ConfirmSuccess ConfirmStatus = iota
	ConfirmNoPendingRequest
	ConfirmExpired
	ConfirmInvalidCode
	ConfirmAttemptsExhausted
	ConfirmAccountInUse
	ConfirmStorageFailure
)

type ConfirmResult struct {
	Status    ConfirmStatus
	Remaining int
}

type ExcludeStatus int

const (
	ExcludeIssued ExcludeStatus = iota
	ExcludeAlreadyExcluded
)

type DecisionStatus int

const (
	AdmissionAllowed DecisionStatus = iota
	AdmissionDeniedNotMember
	AdmissionDeniedExcluded
)

type Decision struct {
	Status    DecisionStatus
	Exclusion *models.ExclusionEntry
}
