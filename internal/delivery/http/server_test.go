package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"heimdall/internal/application"
	"heimdall/internal/audit"
	"heimdall/internal/models"
	"heimdall/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Debug(format string, v ...interface{}) {}

type nopSink struct{}

func (nopSink) Write(line string) error { return nil }

type stubVerifier struct {
	account *application.ExternalAccount
}

func (v *stubVerifier) FindAccountByName(_ context.Context, name string) (*application.ExternalAccount, error) {
	return v.account, nil
}

func (v *stubVerifier) IsMember(_ context.Context, accountID string) (bool, error) {
	return true, nil
}

func (v *stubVerifier) HasRole(_ context.Context, accountID, roleID string) (bool, error) {
	return true, nil
}

func (v *stubVerifier) SendDirectMessage(_ context.Context, accountID, text string) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *application.Service) {
	t.Helper()

	repos := repository.NewMemoryRepository()
	auditLog := audit.NewLog(nopSink{}, nopLogger{})
	verifier := &stubVerifier{account: &application.ExternalAccount{ID: "d-1", Name: "steve#42"}}

	services, err := application.NewService(repos, auditLog, verifier, nil, "", application.LinkOptions{}, nopLogger{})
	require.NoError(t, err)

	return NewServer("127.0.0.1:0", services, nopLogger{}), services
}

func doJSON(t *testing.T, srv *Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdmissionCheckEndpoint(t *testing.T) {
	srv, services := newTestServer(t)
	id := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/v1/admission/check", map[string]string{
		"uuid": id.String(), "name": "stranger",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Decision string `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "denied_not_member", resp.Decision)

	_, err := services.Membership.Admit(id, "stranger", models.ConsoleActor(), "")
	require.NoError(t, err)

	rec = doJSON(t, srv, http.MethodPost, "/v1/admission/check", map[string]string{
		"uuid": id.String(), "name": "stranger",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "allowed", resp.Decision)
}

func TestAdmissionCheckReportsExclusion(t *testing.T) {
	srv, services := newTestServer(t)
	id := uuid.New()

	_, err := services.Exclusions.Exclude(id, "griefer", models.ConsoleActor(), nil, "grief", false)
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admission/check", map[string]string{
		"uuid": id.String(), "name": "griefer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp admissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "denied_excluded", resp.Decision)
	require.NotNil(t, resp.Exclusion)
	assert.Equal(t, "grief", resp.Exclusion.Reason)
	assert.Empty(t, resp.Exclusion.ExpiresAt)
}

func TestAdmissionCheckRejectsBadPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admission/check", map[string]string{"name": "no-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/admission/check", map[string]string{"uuid": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a missing name must be rejected")
}

func TestLinkConfirmRejectsBadPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/link/confirm", map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/link/confirm", map[string]string{"uuid": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a missing code must be rejected")
}

func TestLinkEndpoints(t *testing.T) {
	srv, services := newTestServer(t)
	id := uuid.New()

	_, err := services.Membership.Admit(id, "steve", models.ConsoleActor(), "")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/v1/link/request", map[string]string{
		"uuid": id.String(), "name": "steve", "discord_name": "steve#42",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"code_sent"}`, rec.Body.String())

	pending := services.Links.PendingRequest(id)
	require.NotNil(t, pending)

	rec = doJSON(t, srv, http.MethodPost, "/v1/link/confirm", map[string]string{
		"uuid": id.String(), "code": pending.Code,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp confirmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "verified", resp.Status)
}

func TestMembersEndpoint(t *testing.T) {
	srv, services := newTestServer(t)

	_, err := services.Membership.Admit(uuid.New(), "steve", models.ConsoleActor(), "")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/v1/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var members []models.MemberEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)
	assert.Equal(t, "steve", members[0].Name)
}
