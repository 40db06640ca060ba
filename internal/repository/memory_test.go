package repository

import (
	"testing"
	"time"

	"heimdall/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberMemoryRoundTrip(t *testing.T) {
	repo := NewMemberMemory()
	id := uuid.New()
	verifiedAt := time.Now().UTC()

	entry := models.MemberEntry{
		ID:      id,
		Name:    "steve",
		AddedBy: models.ConsoleActor(),
		AddedAt: time.Now().UTC(),
		Link: &models.ExternalLink{
			ExternalID: "d-1",
			Verified:   true,
			VerifiedAt: &verifiedAt,
		},
	}
	require.NoError(t, repo.Upsert(entry))

	entries, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])

	entry.Name = "renamed"
	require.NoError(t, repo.Upsert(entry))
	entries, err = repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "renamed", entries[0].Name)

	found, err := repo.Delete(id)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(id)
	require.NoError(t, err)
	assert.False(t, found)

	entries, err = repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExclusionMemoryRoundTrip(t *testing.T) {
	repo := NewExclusionMemory()
	id := uuid.New()
	expiry := time.Now().UTC().Add(time.Hour)

	entry := models.ExclusionEntry{
		ID:        id,
		Name:      "griefer",
		IssuedBy:  models.PlayerActor(uuid.New()),
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: &expiry,
		Reason:    "grief",
	}
	require.NoError(t, repo.Upsert(entry))

	entries, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])

	found, err := repo.Delete(id)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestJoinAttemptMemoryRoundTrip(t *testing.T) {
	repo := NewJoinAttemptMemory()
	id := uuid.New()

	attempt := models.JoinAttempt{
		ID:        id,
		Name:      "stranger",
		FirstSeen: time.Now().UTC(),
		LastSeen:  time.Now().UTC(),
		Count:     3,
		Origin:    "lobby",
	}
	require.NoError(t, repo.Upsert(attempt))

	attempts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, attempt, attempts[0])

	found, err := repo.Delete(id)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSettingsMemory(t *testing.T) {
	repo := NewSettingsMemory(true)

	enabled, err := repo.WhitelistEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, repo.SetWhitelistEnabled(false))
	enabled, err = repo.WhitelistEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}
