package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heimdall/internal/audit"
	"heimdall/internal/models"

	"github.com/google/uuid"
)

type LinkOptions struct {
	Cooldown       time.Duration
	CodeTTL        time.Duration
	MaxAttempts    int
	CallTimeout    time.Duration
	RequiredRoleID string
}

func (o *LinkOptions) withDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = defaultLinkCooldown
	}
	if o.CodeTTL <= 0 {
		o.CodeTTL = defaultCodeTTL
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = defaultCallTimeout
	}
}

// LinkService coordinates the Discord verification workflow: code issuance,
// cooldown, confirmation and expiry. Per identity there is at most one live
// request; the state machine is NoRequest -> Pending -> {Verified, Expired,
// Exhausted, Reset} -> NoRequest. Only a successful confirmation touches the
// membership store.
type LinkService struct {
	membership *MembershipService
	verifier   Verifier
	audit      *audit.Log
	logger     Logger
	opts       LinkOptions

	locks     keyLock
	mu        sync.Mutex
	pending   map[uuid.UUID]*models.VerificationRequest
	cooldowns map[uuid.UUID]time.Time
	now       func() time.Time
}

func NewLinkService(membership *MembershipService, verifier Verifier,
	auditLog *audit.Log, opts LinkOptions, logger Logger) *LinkService {

	opts.withDefaults()
	return &LinkService{
		membership: membership,
		verifier:   verifier,
		audit:      auditLog,
		logger:     logger,
		opts:       opts,
		pending:    make(map[uuid.UUID]*models.VerificationRequest),
		cooldowns:  make(map[uuid.UUID]time.Time),
		now:        time.Now,
	}
}

// RequestLink runs the precondition checks under the identity's lock, then
// performs the slow Discord calls with the lock released, and re-enters the
// lock to commit the pending request. A concurrent request that commits
// first wins; this call then reports the pending request instead.
func (s *LinkService) RequestLink(ctx context.Context, id uuid.UUID, name, claimedName string) LinkRequestResult {
	if result, ok := s.beginRequest(id); !ok {
		return result
	}

	account, result := s.resolveAccount(ctx, claimedName)
	if account == nil {
		return result
	}

	code := generateCode(linkCodeLength)
	message := fmt.Sprintf(
		"Verification code for **%s**: `%s`. Run /confirm with it in-game within %d minutes.",
		name, code, int(s.opts.CodeTTL.Minutes()))
	if err := s.callWithTimeout(ctx, func(callCtx context.Context) error {
		return s.verifier.SendDirectMessage(callCtx, account.ID, message)
	}); err != nil {
		s.logger.Warn("code delivery to %s failed: %v", account.ID, err)
		return LinkRequestResult{Status: LinkDeliveryFailed, Reason: err.Error()}
	}

	return s.commitRequest(id, account, code)
}

// beginRequest validates everything that does not need the network. On
// success it stamps the cooldown so a burst of requests cannot fan out into
// parallel Discord lookups.
func (s *LinkService) beginRequest(id uuid.UUID) (LinkRequestResult, bool) {
	defer s.locks.lock(id).Unlock()

	if !s.membership.Enabled() {
		return LinkRequestResult{Status: LinkServiceDisabled}, false
	}

	member := s.membership.Get(id)
	if member == nil {
		return LinkRequestResult{Status: LinkNotAMember}, false
	}
	if member.Link != nil && member.Link.Verified {
		return LinkRequestResult{Status: LinkAlreadyLinked}, false
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if req, found := s.pending[id]; found {
		if !req.ExpiredAt(now) {
			return LinkRequestResult{Status: LinkRequestPending}, false
		}
		delete(s.pending, id)
	}
	if last, found := s.cooldowns[id]; found && now.Sub(last) < s.opts.Cooldown {
		return LinkRequestResult{Status: LinkOnCooldown}, false
	}
	s.cooldowns[id] = now

	return LinkRequestResult{}, true
}

// resolveAccount performs the lookup and the community/role checks. It runs
// without any identity lock held.
func (s *LinkService) resolveAccount(ctx context.Context, claimedName string) (*ExternalAccount, LinkRequestResult) {
	var account *ExternalAccount
	err := s.callWithTimeout(ctx, func(callCtx context.Context) error {
		var callErr error
		account, callErr = s.verifier.FindAccountByName(callCtx, claimedName)
		return callErr
	})
	if err != nil {
		s.logger.Error("account lookup for %q failed: %v", claimedName, err)
		return nil, LinkRequestResult{Status: LinkExternalServiceError, Reason: err.Error()}
	}
	if account == nil {
		return nil, LinkRequestResult{Status: LinkExternalUserNotFound}
	}

	if holder := s.membership.FindByExternalID(account.ID); holder != nil {
		return nil, LinkRequestResult{Status: LinkExternalAccountInUse}
	}

	var isMember bool
	err = s.callWithTimeout(ctx, func(callCtx context.Context) error {
		var callErr error
		isMember, callErr = s.verifier.IsMember(callCtx, account.ID)
		return callErr
	})
	if err != nil {
		s.logger.Error("membership check for %s failed: %v", account.ID, err)
		return nil, LinkRequestResult{Status: LinkExternalServiceError, Reason: err.Error()}
	}
	if !isMember {
		return nil, LinkRequestResult{Status: LinkNotInCommunity}
	}

	if s.opts.RequiredRoleID != "" {
		var hasRole bool
		err = s.callWithTimeout(ctx, func(callCtx context.Context) error {
			var callErr error
			hasRole, callErr = s.verifier.HasRole(callCtx, account.ID, s.opts.RequiredRoleID)
			return callErr
		})
		if err != nil {
			s.logger.Error("role check for %s failed: %v", account.ID, err)
			return nil, LinkRequestResult{Status: LinkExternalServiceError, Reason: err.Error()}
		}
		if !hasRole {
			return nil, LinkRequestResult{Status: LinkMissingRole}
		}
	}

	return account, LinkRequestResult{}
}

func (s *LinkService) commitRequest(id uuid.UUID, account *ExternalAccount, code string) LinkRequestResult {
	defer s.locks.lock(id).Unlock()

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if req, found := s.pending[id]; found && !req.ExpiredAt(now) {
		// A concurrent request won the race while we were on the network.
		return LinkRequestResult{Status: LinkRequestPending}
	}
	s.pending[id] = &models.VerificationRequest{
		ID:                id,
		ExternalID:        account.ID,
		ExternalName:      account.Name,
		Code:              code,
		IssuedAt:          now,
		ExpiresAt:         now.Add(s.opts.CodeTTL),
		RemainingAttempts: s.opts.MaxAttempts,
	}
	return LinkRequestResult{Status: LinkCodeSent}
}

// ConfirmLink checks the submitted code against the pending request. Expiry
// wins over code correctness; a wrong code burns one attempt; burning the
// last attempt clears the request. On a match the request is cleared and the
// verified link written to the membership store in the same exclusive
// section. Verified links are written nowhere else, so holding the
// coordinator lock across the uniqueness check and the write keeps one
// external account from confirming against two members.
func (s *LinkService) ConfirmLink(id uuid.UUID, code string) ConfirmResult {
	defer s.locks.lock(id).Unlock()

	now := s.now()

	s.mu.Lock()
	req, found := s.pending[id]
	if !found {
		s.mu.Unlock()
		return ConfirmResult{Status: ConfirmNoPendingRequest}
	}
	if req.ExpiredAt(now) {
		delete(s.pending, id)
		s.mu.Unlock()
		return ConfirmResult{Status: ConfirmExpired}
	}
	if req.Code != code {
		req.RemainingAttempts--
		if req.RemainingAttempts <= 0 {
			delete(s.pending, id)
			s.mu.Unlock()
			return ConfirmResult{Status: ConfirmAttemptsExhausted}
		}
		remaining := req.RemainingAttempts
		s.mu.Unlock()
		return ConfirmResult{Status: ConfirmInvalidCode, Remaining: remaining}
	}

	// The account may have been claimed by another member's confirm while
	// this request sat pending; request-time checks cannot see that.
	if holder := s.membership.FindByExternalID(req.ExternalID); holder != nil && holder.ID != id {
		delete(s.pending, id)
		s.mu.Unlock()
		return ConfirmResult{Status: ConfirmAccountInUse}
	}

	verifiedAt := now
	link := models.ExternalLink{
		ExternalID:   req.ExternalID,
		ExternalName: req.ExternalName,
		Verified:     true,
		LinkedAt:     req.IssuedAt,
		VerifiedAt:   &verifiedAt,
	}
	ok, err := s.membership.SetLink(id, link, models.PlayerActor(id))
	if err != nil {
		// Keep the request so the player can retry once storage recovers.
		s.mu.Unlock()
		s.logger.Error("failed to store verified link for %s: %v", id, err)
		return ConfirmResult{Status: ConfirmStorageFailure}
	}

	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		// Membership was revoked while the request was live.
		return ConfirmResult{Status: ConfirmNoPendingRequest}
	}
	return ConfirmResult{Status: ConfirmSuccess}
}

// ResetPending unconditionally clears any live request for the identity.
// Used by operator-forced relinks and by unlink flows.
func (s *LinkService) ResetPending(id uuid.UUID, actor models.Actor) bool {
	defer s.locks.lock(id).Unlock()

	s.mu.Lock()
	_, found := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if found {
		s.audit.Append(audit.ActionVerificationReset, id, actor, "")
	}
	return found
}

// PendingRequest returns a copy of the live request, or nil. Expired
// requests are reported as absent.
func (s *LinkService) PendingRequest(id uuid.UUID) *models.VerificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, found := s.pending[id]
	if !found || req.ExpiredAt(s.now()) {
		return nil
	}
	dup := *req
	return &dup
}

func (s *LinkService) callWithTimeout(ctx context.Context, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return call(callCtx)
}
