package application

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"heimdall/internal/audit"
	"heimdall/internal/models"
	"heimdall/internal/repository"

	"github.com/google/uuid"
)

// MembershipService owns the admitted-identity set and the global whitelist
// flag. State lives in memory and is written through to the repository on
// every mutation; mutations for one identity are serialized by a sharded
// lock, while the flag is an atomic read on the admission hot path.
type MembershipService struct {
	repo     repository.Member
	settings repository.Settings
	audit    *audit.Log
	logger   Logger

	enabled atomic.Bool
	locks   keyLock
	mu      sync.RWMutex
	members map[uuid.UUID]*models.MemberEntry
	now     func() time.Time
}

func NewMembershipService(repo repository.Member, settings repository.Settings,
	auditLog *audit.Log, logger Logger) (*MembershipService, error) {

	entries, err := repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	enabled, err := settings.WhitelistEnabled()
	if err != nil {
		return nil, fmt.Errorf("failed to load whitelist flag: %w", err)
	}

	s := &MembershipService{
		repo:     repo,
		settings: settings,
		audit:    auditLog,
		logger:   logger,
		members:  make(map[uuid.UUID]*models.MemberEntry, len(entries)),
		now:      time.Now,
	}
	for i := range entries {
		entry := entries[i]
		s.members[entry.ID] = &entry
	}
	s.enabled.Store(enabled)
	return s, nil
}

// Admit adds an identity to the member set. Returns false without mutation
// if the identity is already a member; the error is reserved for storage
// failures.
func (s *MembershipService) Admit(id uuid.UUID, name string, actor models.Actor, reason string) (bool, error) {
	defer s.locks.lock(id).Unlock()

	if s.get(id) != nil {
		return false, nil
	}

	entry := models.MemberEntry{
		ID:      id,
		Name:    name,
		AddedBy: actor,
		AddedAt: s.now(),
		Reason:  reason,
	}
	if err := s.repo.Upsert(entry); err != nil {
		return false, fmt.Errorf("failed to persist member: %w", err)
	}
	s.put(&entry)

	s.audit.Append(audit.ActionMemberAdmitted, id, actor, fmt.Sprintf("name=%s reason=%s", name, reason))
	return true, nil
}

// Revoke removes an identity from the member set. Returns false if the
// identity was never a member.
func (s *MembershipService) Revoke(id uuid.UUID, actor models.Actor) (bool, error) {
	defer s.locks.lock(id).Unlock()

	entry := s.get(id)
	if entry == nil {
		return false, nil
	}

	if _, err := s.repo.Delete(id); err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	s.remove(id)

	s.audit.Append(audit.ActionMemberRevoked, id, actor, fmt.Sprintf("name=%s", entry.Name))
	return true, nil
}

func (s *MembershipService) IsMember(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.members[id]
	return found
}

// Get returns a copy of the member entry, or nil for non-members.
func (s *MembershipService) Get(id uuid.UUID) *models.MemberEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntry(s.members[id])
}

func (s *MembershipService) ListAll() []models.MemberEntry {
	s.mu.RLock()
	entries := make([]models.MemberEntry, 0, len(s.members))
	for _, e := range s.members {
		entries = append(entries, *copyEntry(e))
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries
}

func (s *MembershipService) Enabled() bool {
	return s.enabled.Load()
}

// SetEnabled toggles whitelist enforcement. Reads of the flag never touch
// the per-identity locks.
func (s *MembershipService) SetEnabled(enabled bool, actor models.Actor) error {
	if err := s.settings.SetWhitelistEnabled(enabled); err != nil {
		return fmt.Errorf("failed to persist whitelist flag: %w", err)
	}
	s.enabled.Store(enabled)

	action := audit.ActionWhitelistDisabled
	if enabled {
		action = audit.ActionWhitelistEnabled
	}
	s.audit.Append(action, uuid.Nil, actor, "")
	return nil
}

// SetLink attaches an external link to a member. Returns false if the
// identity is not a member.
func (s *MembershipService) SetLink(id uuid.UUID, link models.ExternalLink, actor models.Actor) (bool, error) {
	defer s.locks.lock(id).Unlock()

	entry := s.get(id)
	if entry == nil {
		return false, nil
	}

	updated := *copyEntry(entry)
	updated.Link = &link
	if err := s.repo.Upsert(updated); err != nil {
		return false, fmt.Errorf("failed to persist link: %w", err)
	}
	s.put(&updated)

	action := audit.ActionLinkSet
	if link.Verified {
		action = audit.ActionLinkVerified
	}
	s.audit.Append(action, id, actor, fmt.Sprintf("external_id=%s external_name=%s", link.ExternalID, link.ExternalName))
	return true, nil
}

// ClearLink detaches the external link. Returns false if the identity is not
// a member or has no link.
func (s *MembershipService) ClearLink(id uuid.UUID, actor models.Actor) (bool, error) {
	defer s.locks.lock(id).Unlock()

	entry := s.get(id)
	if entry == nil || entry.Link == nil {
		return false, nil
	}

	updated := *copyEntry(entry)
	cleared := updated.Link
	updated.Link = nil
	if err := s.repo.Upsert(updated); err != nil {
		return false, fmt.Errorf("failed to persist link removal: %w", err)
	}
	s.put(&updated)

	s.audit.Append(audit.ActionLinkCleared, id, actor, fmt.Sprintf("external_id=%s", cleared.ExternalID))
	return true, nil
}

// FindByExternalID returns the member holding a verified link to the given
// external account, if any. Used to keep one external account from verifying
// against two members.
func (s *MembershipService) FindByExternalID(externalID string) *models.MemberEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.members {
		if e.Link != nil && e.Link.Verified && e.Link.ExternalID == externalID {
			return copyEntry(e)
		}
	}
	return nil
}

func (s *MembershipService) get(id uuid.UUID) *models.MemberEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[id]
}

func (s *MembershipService) put(entry *models.MemberEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[entry.ID] = entry
}

func (s *MembershipService) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
}

func copyEntry(entry *models.MemberEntry) *models.MemberEntry {
	if entry == nil {
		return nil
	}
	dup := *entry
	if entry.Link != nil {
		link := *entry.Link
		dup.Link = &link
	}
	return &dup
}
