package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecotrack/waste-server/internal/apperr"
	"github.com/ecotrack/waste-server/internal/auth"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/google/uuid"
)

// stubResolver maps a fixed set of account ids to roles.
type stubResolver struct {
	roles map[uuid.UUID]models.Role
}

func (s *stubResolver) ResolveRole(_ context.Context, id uuid.UUID) (models.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return "", apperr.NotFound("no role record for account %s", id)
	}
	return role, nil
}

func TestRequireAuthAttachesPrincipal(t *testing.T) {
	secret := "test-secret"
	accountID := uuid.New()
	resolver := &stubResolver{roles: map[uuid.UUID]models.Role{accountID: models.RoleWorker}}

	var got models.Principal
	var ok bool
	handler := RequireAuth(secret, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = PrincipalFrom(r.Context())
	}))

	token, err := auth.GenerateToken(accountID, secret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !ok {
		t.Fatal("Principal missing from request context")
	}
	if got.ID != accountID || got.Role != models.RoleWorker {
		t.Errorf("Wrong principal: %+v", got)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	secret := "test-secret"
	resolver := &stubResolver{roles: map[uuid.UUID]models.Role{}}
	handler := RequireAuth(secret, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run for rejected requests")
	}))

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Missing token: expected 401, got %d", rec.Code)
	}

	// Bad token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Bad token: expected 401, got %d", rec.Code)
	}

	// Valid token but no role record: unauthenticated for app purposes.
	token, err := auth.GenerateToken(uuid.New(), secret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Roleless account: expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(models.RoleManagement)(next)

	// Management passes.
	p := models.Principal{ID: uuid.New(), Role: models.RoleManagement}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil)
	req = req.WithContext(WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Management: expected 204, got %d", rec.Code)
	}

	// A worker is refused.
	p = models.Principal{ID: uuid.New(), Role: models.RoleWorker}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil)
	req = req.WithContext(WithPrincipal(req.Context(), p))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Worker: expected 403, got %d", rec.Code)
	}
}
