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

// JoinAttemptService records admission tries by non-members for operator
// review. Entries are independent of each other and cheap, so one mutex
// covers the whole map.
type JoinAttemptService struct {
	repo   repository.JoinAttempt
	audit  *audit.Log
	logger Logger

	mu       sync.Mutex
	attempts map[uuid.UUID]models.JoinAttempt
	now      func() time.Time
}

func NewJoinAttemptService(repo repository.JoinAttempt, auditLog *audit.Log, logger Logger) (*JoinAttemptService, error) {
	attempts, err := repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load join attempts: %w", err)
	}

	s := &JoinAttemptService{
		repo:     repo,
		audit:    auditLog,
		logger:   logger,
		attempts: make(map[uuid.UUID]models.JoinAttempt, len(attempts)),
		now:      time.Now,
	}
	for _, a := range attempts {
		s.attempts[a.ID] = a
	}
	return s, nil
}

// Record creates or accumulates an attempt row. FirstSeen is set once and
// never moves; everything else tracks the latest try. The write-through runs
// under the lock so concurrent records cannot persist out of order. A storage
// hiccup is logged and swallowed: record-keeping must not affect the
// admission path.
func (s *JoinAttemptService) Record(id uuid.UUID, name, origin, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	attempt, found := s.attempts[id]
	if !found {
		attempt = models.JoinAttempt{
			ID:        id,
			Name:      name,
			FirstSeen: now,
			Count:     0,
		}
	}
	attempt.Name = name
	attempt.LastSeen = now
	attempt.Count++
	if origin != "" {
		attempt.Origin = origin
	}
	if message != "" {
		attempt.Message = message
	}
	s.attempts[id] = attempt

	if err := s.repo.Upsert(attempt); err != nil {
		s.logger.Warn("failed to persist join attempt for %s: %v", id, err)
	}
}

// Remove deletes the row; called when the identity becomes a member or an
// operator dismisses it.
func (s *JoinAttemptService) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.attempts[id]
	if !found {
		return false
	}
	delete(s.attempts, id)

	if _, err := s.repo.Delete(id); err != nil {
		s.logger.Warn("failed to delete join attempt for %s: %v", id, err)
	}
	return true
}

// Dismiss is the operator-facing removal: same as Remove, plus an audit
// record naming who threw the attempt away.
func (s *JoinAttemptService) Dismiss(id uuid.UUID, actor models.Actor) bool {
	if !s.Remove(id) {
		return false
	}
	s.audit.Append(audit.ActionJoinAttemptDismiss, id, actor, "")
	return true
}

// Get returns the attempt row for an identity, or nil.
func (s *JoinAttemptService) Get(id uuid.UUID) *models.JoinAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, found := s.attempts[id]
	if !found {
		return nil
	}
	return &attempt
}

// ListAll returns attempts most-recent-first for operator review.
func (s *JoinAttemptService) ListAll() []models.JoinAttempt {
	s.mu.Lock()
	attempts := make([]models.JoinAttempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		attempts = append(attempts, a)
	}
	s.mu.Unlock()

	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].LastSeen.After(attempts[j].LastSeen)
	})
	return attempts
}
