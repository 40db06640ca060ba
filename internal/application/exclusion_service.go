package application

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"heimdall/internal/audit"
	"heimdall/internal/models"
	"heimdall/internal/repository"

	"github.com/google/uuid"
)

// ExclusionService owns time-bounded and permanent exclusion records.
// Activity is computed lazily from the expiry timestamp; no timer fires when
// an exclusion runs out.
type ExclusionService struct {
	repo       repository.Exclusion
	membership *MembershipService
	audit      *audit.Log
	logger     Logger

	locks   keyLock
	mu      sync.RWMutex
	entries map[uuid.UUID]*models.ExclusionEntry
	now     func() time.Time
}

func NewExclusionService(repo repository.Exclusion, membership *MembershipService,
	auditLog *audit.Log, logger Logger) (*ExclusionService, error) {

	entries, err := repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}

	s := &ExclusionService{
		repo:       repo,
		membership: membership,
		audit:      auditLog,
		logger:     logger,
		entries:    make(map[uuid.UUID]*models.ExclusionEntry, len(entries)),
		now:        time.Now,
	}
	for i := range entries {
		entry := entries[i]
		s.entries[entry.ID] = &entry
	}
	return s, nil
}

// Exclude issues a new exclusion. An existing active entry is never extended
// or overwritten; the call is rejected instead. A nil duration makes the
// entry permanent. With alsoRevoke the identity is dropped from the member
// set in the same call.
func (s *ExclusionService) Exclude(id uuid.UUID, name string, actor models.Actor,
	duration *time.Duration, reason string, alsoRevoke bool) (ExcludeStatus, error) {

	defer s.locks.lock(id).Unlock()

	now := s.now()
	if existing := s.get(id); existing.ActiveAt(now) {
		return ExcludeAlreadyExcluded, nil
	}

	entry := models.ExclusionEntry{
		ID:       id,
		Name:     name,
		IssuedBy: actor,
		IssuedAt: now,
		Reason:   reason,
	}
	if duration != nil {
		expiry := now.Add(*duration)
		entry.ExpiresAt = &expiry
	}
	if err := s.repo.Upsert(entry); err != nil {
		return ExcludeIssued, fmt.Errorf("failed to persist exclusion: %w", err)
	}
	s.put(&entry)

	s.audit.Append(audit.ActionExclusionIssued, id, actor,
		fmt.Sprintf("name=%s duration=%s reason=%s revoke=%t", name, DescribeDuration(duration), reason, alsoRevoke))

	if alsoRevoke {
		if _, err := s.membership.Revoke(id, actor); err != nil {
			// The exclusion stands either way; membership cleanup can be
			// retried by the operator.
			s.logger.Warn("cascading revoke for %s failed: %v", id, err)
		}
	}
	return ExcludeIssued, nil
}

// ActiveExclusion returns the entry currently denying access, or nil.
func (s *ExclusionService) ActiveExclusion(id uuid.UUID) *models.ExclusionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.entries[id]
	if !entry.ActiveAt(s.now()) {
		return nil
	}
	dup := *entry
	return &dup
}

// Lift removes the exclusion record, active or expired. Returns false if
// none exists.
func (s *ExclusionService) Lift(id uuid.UUID, actor models.Actor) (bool, error) {
	defer s.locks.lock(id).Unlock()

	entry := s.get(id)
	if entry == nil {
		return false, nil
	}

	if _, err := s.repo.Delete(id); err != nil {
		return false, fmt.Errorf("failed to delete exclusion: %w", err)
	}
	s.removeEntry(id)

	s.audit.Append(audit.ActionExclusionLifted, id, actor, fmt.Sprintf("name=%s", entry.Name))
	return true, nil
}

// ListActive returns active entries, newest first.
func (s *ExclusionService) ListActive() []models.ExclusionEntry {
	now := s.now()

	s.mu.RLock()
	var entries []models.ExclusionEntry
	for _, e := range s.entries {
		if e.ActiveAt(now) {
			entries = append(entries, *e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].IssuedAt.After(entries[j].IssuedAt)
	})
	return entries
}

// PurgeExpired drops long-expired rows. Storage hygiene only; activity is
// always computed from the expiry timestamp, so skipping this changes no
// behavior.
func (s *ExclusionService) PurgeExpired() int {
	now := s.now()

	s.mu.RLock()
	var expired []uuid.UUID
	for id, e := range s.entries {
		if e.ExpiresAt != nil && !e.ActiveAt(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	purged := 0
	for _, id := range expired {
		unlock := s.locks.lock(id)
		if entry := s.get(id); entry != nil && entry.ExpiresAt != nil && !entry.ActiveAt(now) {
			if _, err := s.repo.Delete(id); err != nil {
				s.logger.Warn("failed to purge exclusion %s: %v", id, err)
			} else {
				s.removeEntry(id)
				purged++
			}
		}
		unlock.Unlock()
	}
	return purged
}

func (s *ExclusionService) get(id uuid.UUID) *models.ExclusionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

func (s *ExclusionService) put(entry *models.ExclusionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

func (s *ExclusionService) removeEntry(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}
