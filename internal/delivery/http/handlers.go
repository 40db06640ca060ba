package http

import (
	"encoding/json"
	"net/http"

	"heimdall/internal/application"

	"github.com/google/uuid"
)

type admissionRequest struct {
	UUID    uuid.UUID `json:"uuid"`
	Name    string    `json:"name"`
	Origin  string    `json:"origin,omitempty"`
	Message string    `json:"message,omitempty"`
}

type admissionResponse struct {
	Decision  string            `json:"decision"`
	Exclusion *exclusionPayload `json:"exclusion,omitempty"`
}

type exclusionPayload struct {
	Reason    string `json:"reason"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func (s *Server) handleAdmissionCheck(w http.ResponseWriter, r *http.Request) {
	var req admissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == uuid.Nil || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "uuid and name are required")
		return
	}

	decision := s.services.Gate.Check(req.UUID, req.Name, req.Origin, req.Message)

	resp := admissionResponse{Decision: decisionLabel(decision.Status)}
	if decision.Exclusion != nil {
		resp.Exclusion = &exclusionPayload{Reason: decision.Exclusion.Reason}
		if decision.Exclusion.ExpiresAt != nil {
			resp.Exclusion.ExpiresAt = decision.Exclusion.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type linkRequest struct {
	UUID        uuid.UUID `json:"uuid"`
	Name        string    `json:"name"`
	DiscordName string    `json:"discord_name"`
}

func (s *Server) handleLinkRequest(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == uuid.Nil || req.DiscordName == "" {
		s.writeError(w, http.StatusBadRequest, "uuid, name and discord_name are required")
		return
	}

	result := s.services.Links.RequestLink(r.Context(), req.UUID, req.Name, req.DiscordName)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": linkRequestLabel(result.Status)})
}

type confirmRequest struct {
	UUID uuid.UUID `json:"uuid"`
	Code string    `json:"code"`
}

type confirmResponse struct {
	Status    string `json:"status"`
	Remaining int    `json:"remaining,omitempty"`
}

func (s *Server) handleLinkConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == uuid.Nil || req.Code == "" {
		s.writeError(w, http.StatusBadRequest, "uuid and code are required")
		return
	}

	result := s.services.Links.ConfirmLink(req.UUID, req.Code)
	s.writeJSON(w, http.StatusOK, confirmResponse{
		Status:    confirmLabel(result.Status),
		Remaining: result.Remaining,
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.services.Membership.ListAll())
}

func (s *Server) handleExclusions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.services.Exclusions.ListActive())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decisionLabel(status application.DecisionStatus) string {
	switch status {
	case application.AdmissionAllowed:
		return "allowed"
	case application.AdmissionDeniedNotMember:
		return "denied_not_member"
	case application.AdmissionDeniedExcluded:
		return "denied_excluded"
	}
	return "unknown"
}

func linkRequestLabel(status application.LinkRequestStatus) string {
	switch status {
	case application.LinkCodeSent:
		return "code_sent"
	case application.LinkServiceDisabled:
		return "service_disabled"
	case application.LinkNotAMember:
		return "not_a_member"
	case application.LinkExternalUserNotFound:
		return "external_user_not_found"
	case application.LinkNotInCommunity:
		return "not_in_required_community"
	case application.LinkMissingRole:
		return "missing_required_role"
	case application.LinkAlreadyLinked:
		return "already_linked"
	case application.LinkExternalAccountInUse:
		return "external_account_in_use"
	case application.LinkRequestPending:
		return "request_already_pending"
	case application.LinkOnCooldown:
		return "on_cooldown"
	case application.LinkDeliveryFailed:
		return "delivery_failed"
	case application.LinkExternalServiceError:
		return "external_service_error"
	}
	return "unknown"
}

func confirmLabel(status application.ConfirmStatus) string {
	switch status {
	case application.ConfirmSuccess:
		return "verified"
	case application.ConfirmNoPendingRequest:
		return "no_pending_request"
	case application.ConfirmExpired:
		return "expired"
	case application.ConfirmInvalidCode:
		return "invalid_code"
	case application.ConfirmAttemptsExhausted:
		return "attempts_exhausted"
	case application.ConfirmAccountInUse:
		return "external_account_in_use"
	case application.ConfirmStorageFailure:
		return "storage_failure"
	}
	return "unknown"
}
