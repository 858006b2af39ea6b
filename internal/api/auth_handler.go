package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/registrar-api/internal/api/shared"
	"github.com/phrazzld/registrar-api/internal/service/auth"
	"github.com/phrazzld/registrar-api/internal/store"
)

// decoy credential verified on the unknown-student path, so a login against
// a missing student number pays the same key derivation as a wrong password
// and response timing does not reveal which student numbers exist.
var (
	decoySalt = "bm8tc3VjaC1zdHVkZW50LXNhbHQ="
	decoyHash = auth.HashPassword("decoy-password-never-matched", decoySalt)
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	studentStore     store.StudentStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	tokenLifetime    time.Duration
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	studentStore store.StudentStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	tokenLifetime time.Duration,
) *AuthHandler {
	return &AuthHandler{
		studentStore:     studentStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		tokenLifetime:    tokenLifetime,
	}
}

// Login handles the /auth/login endpoint.
//
// A missing student and a wrong password produce the same 401 response so
// the endpoint does not reveal which student numbers exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if !decodeAndValidate(w, r, &req) {
		return
	}

	student, err := h.studentStore.GetByStudentNumber(r.Context(), req.StudentNumber)
	if err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			h.passwordVerifier.Verify(req.Password, decoyHash, decoySalt)
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("failed to get student by number",
			"error", err,
			"student_number", req.StudentNumber)
		HandleAPIError(w, r, err, "Failed to authenticate student")
		return
	}

	if !h.passwordVerifier.Verify(req.Password, student.HashedPassword, student.Salt) {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), student.ID)
	if err != nil {
		slog.Error("failed to generate token", "error", err, "student_id", student.ID)
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), student.ID)
	if err != nil {
		slog.Error("failed to generate refresh token", "error", err, "student_id", student.ID)
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		StudentID:    student.ID,
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(h.tokenLifetime).Format(time.RFC3339),
	})
}

// RefreshToken handles the /auth/refresh endpoint. It validates the refresh
// token and issues a fresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), claims.StudentID)
	if err != nil {
		slog.Error("failed to generate token", "error", err, "student_id", claims.StudentID)
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), claims.StudentID)
	if err != nil {
		slog.Error("failed to generate refresh token", "error", err, "student_id", claims.StudentID)
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  token,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(h.tokenLifetime).Format(time.RFC3339),
	})
}
