package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"heimdall/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkTestOptions() LinkOptions {
	return LinkOptions{
		Cooldown:    30 * time.Second,
		CodeTTL:     5 * time.Minute,
		MaxAttempts: 3,
		CallTimeout: time.Second,
	}
}

func admitPlayer(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := f.membership.Admit(id, "steve", models.ConsoleActor(), "")
	require.NoError(t, err)
	return id
}

func TestLinkFullFlow(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	require.Equal(t, LinkCodeSent, result.Status)

	req := f.links.PendingRequest(id)
	require.NotNil(t, req)
	assert.Equal(t, "d-1", req.ExternalID)
	assert.Equal(t, 3, req.RemainingAttempts)
	require.Len(t, f.verifier.messages["d-1"], 1)
	assert.Contains(t, f.verifier.messages["d-1"][0], req.Code)

	confirm := f.links.ConfirmLink(id, "wrong")
	assert.Equal(t, ConfirmInvalidCode, confirm.Status)
	assert.Equal(t, 2, confirm.Remaining)

	confirm = f.links.ConfirmLink(id, req.Code)
	require.Equal(t, ConfirmSuccess, confirm.Status)

	entry := f.membership.Get(id)
	require.NotNil(t, entry.Link)
	assert.True(t, entry.Link.Verified)
	assert.Equal(t, "d-1", entry.Link.ExternalID)
	assert.Equal(t, "steve#42", entry.Link.ExternalName)
	require.NotNil(t, entry.Link.VerifiedAt)

	assert.Nil(t, f.links.PendingRequest(id))

	result = f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkAlreadyLinked, result.Status)
}

func TestLinkRequestPreconditions(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)

	result := f.links.RequestLink(context.Background(), uuid.New(), "ghost", "steve#42")
	assert.Equal(t, LinkNotAMember, result.Status)

	id := admitPlayer(t, f)
	require.NoError(t, f.membership.SetEnabled(false, models.ConsoleActor()))
	result = f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkServiceDisabled, result.Status)

	assert.Zero(t, f.verifier.lookups(), "rejected requests must not reach the verifier")
}

func TestLinkRequestUnknownAccount(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	id := admitPlayer(t, f)

	result := f.links.RequestLink(context.Background(), id, "steve", "nobody#0")
	assert.Equal(t, LinkExternalUserNotFound, result.Status)
	assert.Nil(t, f.links.PendingRequest(id))
}

func TestLinkRequestNotInCommunity(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", false)
	id := admitPlayer(t, f)

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkNotInCommunity, result.Status)
}

func TestLinkRequestMissingRole(t *testing.T) {
	opts := linkTestOptions()
	opts.RequiredRoleID = "role-citizen"
	f := newFixture(t, opts)
	f.verifier.addAccount("steve#42", "d-1", true)
	f.verifier.addAccount("alex#7", "d-2", true, "role-citizen")

	steve := admitPlayer(t, f)
	result := f.links.RequestLink(context.Background(), steve, "steve", "steve#42")
	assert.Equal(t, LinkMissingRole, result.Status)

	alex := uuid.New()
	_, err := f.membership.Admit(alex, "alex", models.ConsoleActor(), "")
	require.NoError(t, err)
	result = f.links.RequestLink(context.Background(), alex, "alex", "alex#7")
	assert.Equal(t, LinkCodeSent, result.Status)
}

func TestLinkRequestAccountAlreadyClaimed(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)

	first := admitPlayer(t, f)
	result := f.links.RequestLink(context.Background(), first, "steve", "steve#42")
	require.Equal(t, LinkCodeSent, result.Status)
	req := f.links.PendingRequest(first)
	require.Equal(t, ConfirmSuccess, f.links.ConfirmLink(first, req.Code).Status)

	second := uuid.New()
	_, err := f.membership.Admit(second, "impostor", models.ConsoleActor(), "")
	require.NoError(t, err)
	result = f.links.RequestLink(context.Background(), second, "impostor", "steve#42")
	assert.Equal(t, LinkExternalAccountInUse, result.Status)
}

func TestLinkConfirmRejectsAccountClaimedWhilePending(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)

	first := admitPlayer(t, f)
	second := uuid.New()
	_, err := f.membership.Admit(second, "impostor", models.ConsoleActor(), "")
	require.NoError(t, err)

	// Neither member is verified yet, so both requests pass the
	// request-time checks for the same account.
	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), first, "steve", "steve#42").Status)
	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), second, "impostor", "steve#42").Status)

	firstReq := f.links.PendingRequest(first)
	secondReq := f.links.PendingRequest(second)
	require.NotNil(t, firstReq)
	require.NotNil(t, secondReq)

	require.Equal(t, ConfirmSuccess, f.links.ConfirmLink(first, firstReq.Code).Status)

	confirm := f.links.ConfirmLink(second, secondReq.Code)
	assert.Equal(t, ConfirmAccountInUse, confirm.Status)
	assert.Nil(t, f.membership.Get(second).Link, "the losing member must not end up linked")
	assert.Nil(t, f.links.PendingRequest(second), "the dead request must be cleared")

	holder := f.membership.FindByExternalID("d-1")
	require.NotNil(t, holder)
	assert.Equal(t, first, holder.ID)
}

func TestLinkPendingRequestShortCircuits(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), id, "steve", "steve#42").Status)
	lookupsAfterFirst := f.verifier.lookups()

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkRequestPending, result.Status)
	assert.Equal(t, lookupsAfterFirst, f.verifier.lookups(), "a live request must block further lookups")
}

func TestLinkCooldownAfterReset(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), id, "steve", "steve#42").Status)
	require.True(t, f.links.ResetPending(id, models.ConsoleActor()))
	lookupsAfterFirst := f.verifier.lookups()

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkOnCooldown, result.Status)
	assert.Equal(t, lookupsAfterFirst, f.verifier.lookups())

	f.clock.Advance(31 * time.Second)
	result = f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkCodeSent, result.Status)
}

func TestLinkConfirmExpiryBeatsCorrectCode(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), id, "steve", "steve#42").Status)
	req := f.links.PendingRequest(id)
	require.NotNil(t, req)

	f.clock.Advance(5*time.Minute + time.Second)

	confirm := f.links.ConfirmLink(id, req.Code)
	assert.Equal(t, ConfirmExpired, confirm.Status)
	assert.Nil(t, f.links.PendingRequest(id))
	assert.Nil(t, f.membership.Get(id).Link)
}

func TestLinkConfirmAttemptBudget(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), id, "steve", "steve#42").Status)
	req := f.links.PendingRequest(id)

	confirm := f.links.ConfirmLink(id, "nope")
	assert.Equal(t, ConfirmInvalidCode, confirm.Status)
	assert.Equal(t, 2, confirm.Remaining)

	confirm = f.links.ConfirmLink(id, "nope")
	assert.Equal(t, ConfirmInvalidCode, confirm.Status)
	assert.Equal(t, 1, confirm.Remaining)

	confirm = f.links.ConfirmLink(id, "nope")
	assert.Equal(t, ConfirmAttemptsExhausted, confirm.Status)

	confirm = f.links.ConfirmLink(id, req.Code)
	assert.Equal(t, ConfirmNoPendingRequest, confirm.Status,
		"the correct code must be dead once the budget is burned")
}

func TestLinkDeliveryFailureLeavesNoRequest(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	f.verifier.dmErr = errors.New("cannot send messages to this user")
	id := admitPlayer(t, f)

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkDeliveryFailed, result.Status)
	assert.NotEmpty(t, result.Reason)
	assert.Nil(t, f.links.PendingRequest(id))
}

func TestLinkLookupFailure(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.findErr = errors.New("discord is down")
	id := admitPlayer(t, f)

	result := f.links.RequestLink(context.Background(), id, "steve", "steve#42")
	assert.Equal(t, LinkExternalServiceError, result.Status)
	assert.Equal(t, "discord is down", result.Reason)
}

func TestLinkConfirmWithoutRequest(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	id := admitPlayer(t, f)

	confirm := f.links.ConfirmLink(id, "anything")
	assert.Equal(t, ConfirmNoPendingRequest, confirm.Status)
}

func TestLinkResetPending(t *testing.T) {
	f := newFixture(t, linkTestOptions())
	f.verifier.addAccount("steve#42", "d-1", true)
	id := admitPlayer(t, f)

	assert.False(t, f.links.ResetPending(id, models.ConsoleActor()))

	require.Equal(t, LinkCodeSent, f.links.RequestLink(context.Background(), id, "steve", "steve#42").Status)
	assert.True(t, f.links.ResetPending(id, models.ConsoleActor()))
	assert.Nil(t, f.links.PendingRequest(id))
	assert.False(t, f.links.ResetPending(id, models.ConsoleActor()))
}
