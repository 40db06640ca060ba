package application

import "github.com/google/uuid"

// GateService is the admission fast path the game server hits on every
// connect. It reads the atomic whitelist flag and the in-memory member and
// exclusion state; it never calls Discord.
type GateService struct {
	membership *MembershipService
	exclusions *ExclusionService
	joins      *JoinAttemptService
}

func NewGateService(membership *MembershipService, exclusions *ExclusionService,
	joins *JoinAttemptService) *GateService {
	return &GateService{
		membership: membership,
		exclusions: exclusions,
		joins:      joins,
	}
}

// Check decides whether a connecting identity may enter. An active exclusion
// denies regardless of membership or the whitelist flag. Non-member denials
// are routed into the join-attempt tracker.
func (s *GateService) Check(id uuid.UUID, name, origin, message string) Decision {
	if entry := s.exclusions.ActiveExclusion(id); entry != nil {
		return Decision{Status: AdmissionDeniedExcluded, Exclusion: entry}
	}

	if !s.membership.Enabled() {
		return Decision{Status: AdmissionAllowed}
	}

	if s.membership.IsMember(id) {
		// Clean up any row left over from before the identity was admitted.
		s.joins.Remove(id)
		return Decision{Status: AdmissionAllowed}
	}

	s.joins.Record(id, name, origin, message)
	return Decision{Status: AdmissionDeniedNotMember}
}
