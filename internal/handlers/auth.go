package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ecotrack/waste-server/internal/auth"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/ecotrack/waste-server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler handles registration and credential login.
type AuthHandler struct {
	accountSvc *services.AccountService
	jwtSecret  string
	tokenTTL   time.Duration
	logger     *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(as *services.AccountService, jwtSecret string, tokenTTL time.Duration, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{accountSvc: as, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register handles POST /api/v1/auth/register
// Creates a citizen account and returns a token for immediate use.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.accountSvc.Register(r.Context(), &req)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	token, err := auth.GenerateToken(account.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.accountSvc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Uniform response regardless of which check failed.
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.GenerateToken(account.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	h.logger.Infow("Login", "id", account.ID, "role", account.Role)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}
