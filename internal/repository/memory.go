package repository

import (
	"sync"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

type MemberMemory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.MemberEntry
}

func NewMemberMemory() *MemberMemory {
	return &MemberMemory{entries: make(map[uuid.UUID]models.MemberEntry)}
}

func (r *MemberMemory) LoadAll() ([]models.MemberEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]models.MemberEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *MemberMemory) Upsert(entry models.MemberEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *MemberMemory) Delete(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, found := r.entries[id]
	delete(r.entries, id)
	return found, nil
}

type ExclusionMemory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.ExclusionEntry
}

func NewExclusionMemory() *ExclusionMemory {
	return &ExclusionMemory{entries: make(map[uuid.UUID]models.ExclusionEntry)}
}

func (r *ExclusionMemory) LoadAll() ([]models.ExclusionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]models.ExclusionEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *ExclusionMemory) Upsert(entry models.ExclusionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *ExclusionMemory) Delete(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, found := r.entries[id]
	delete(r.entries, id)
	return found, nil
}

type JoinAttemptMemory struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]models.JoinAttempt
}

func NewJoinAttemptMemory() *JoinAttemptMemory {
	return &JoinAttemptMemory{attempts: make(map[uuid.UUID]models.JoinAttempt)}
}

func (r *JoinAttemptMemory) LoadAll() ([]models.JoinAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempts := make([]models.JoinAttempt, 0, len(r.attempts))
	for _, a := range r.attempts {
		attempts = append(attempts, a)
	}
	return attempts, nil
}

func (r *JoinAttemptMemory) Upsert(attempt models.JoinAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[attempt.ID] = attempt
	return nil
}

func (r *JoinAttemptMemory) Delete(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, found := r.attempts[id]
	delete(r.attempts, id)
	return found, nil
}

type SettingsMemory struct {
	mu      sync.Mutex
	enabled bool
}

func NewSettingsMemory(enabled bool) *SettingsMemory {
	return &SettingsMemory{enabled: enabled}
}

func (r *SettingsMemory) WhitelistEnabled() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled, nil
}

func (r *SettingsMemory) SetWhitelistEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
	return nil
}
