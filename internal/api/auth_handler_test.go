package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/registrar-api/internal/config"
	"github.com/phrazzld/registrar-api/internal/domain"
	"github.com/phrazzld/registrar-api/internal/service/auth"
	"github.com/phrazzld/registrar-api/internal/store"
)

// stubStudentStore overrides the single lookup the auth handler needs; the
// embedded interface panics on anything else, which would mark a test bug.
type stubStudentStore struct {
	store.StudentStore
	student *domain.Student
	err     error
}

func (s *stubStudentStore) GetByStudentNumber(ctx context.Context, number int64) (*domain.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.student == nil || s.student.StudentNumber != number {
		return nil, store.ErrStudentNotFound
	}
	return s.student, nil
}

func newTestJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-thirty-two-characters!!",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
	})
	require.NoError(t, err)
	return svc
}

func newAuthTestStudent(t *testing.T, number int64, password string) *domain.Student {
	t.Helper()
	salt, err := auth.GenerateSalt()
	require.NoError(t, err)

	return &domain.Student{
		ID:             uuid.New(),
		StudentNumber:  number,
		HashedPassword: auth.HashPassword(password, salt),
		Salt:           salt,
		Role:           domain.RoleStudent,
		Provider:       domain.DefaultProvider,
	}
}

func newAuthHandler(t *testing.T, studentStore store.StudentStore) *AuthHandler {
	t.Helper()
	return NewAuthHandler(studentStore, newTestJWTService(t), auth.NewPBKDF2Verifier(), time.Hour)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	student := newAuthTestStudent(t, 42, "correct-password")
	handler := newAuthHandler(t, &stubStudentStore{student: student})

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 42,
		Password:      "correct-password",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, student.ID, resp.StudentID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.ExpiresAt)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	student := newAuthTestStudent(t, 42, "correct-password")
	handler := newAuthHandler(t, &stubStudentStore{student: student})

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 42,
		Password:      "wrong-password",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestLoginUnknownStudentSameResponse(t *testing.T) {
	t.Parallel()

	// A missing student must be indistinguishable from a wrong password.
	handler := newAuthHandler(t, &stubStudentStore{})

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 9999,
		Password:      "whatever-password",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

// countingVerifier wraps a real verifier and records how often Verify runs.
type countingVerifier struct {
	inner auth.PasswordVerifier
	calls int
}

func (v *countingVerifier) Verify(password, storedHash, storedSalt string) bool {
	v.calls++
	return v.inner.Verify(password, storedHash, storedSalt)
}

func TestLoginVerifiesOnUnknownStudentPath(t *testing.T) {
	t.Parallel()

	// Both failure paths must pay the same key derivation; skipping it for an
	// unknown student number would make response timing an existence oracle.
	student := newAuthTestStudent(t, 42, "correct-password")
	verifier := &countingVerifier{inner: auth.NewPBKDF2Verifier()}
	handler := NewAuthHandler(
		&stubStudentStore{student: student}, newTestJWTService(t), verifier, time.Hour)

	wrong := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 42,
		Password:      "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, 1, verifier.calls)

	unknown := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 9999,
		Password:      "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, 2, verifier.calls)

	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLoginInvalidPayload(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, &stubStudentStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	t.Parallel()

	handler := newAuthHandler(t, &stubStudentStore{})

	w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{StudentNumber: 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	student := newAuthTestStudent(t, 42, "correct-password")
	handler := newAuthHandler(t, &stubStudentStore{student: student})

	login := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 42,
		Password:      "correct-password",
	})
	require.Equal(t, http.StatusOK, login.Code)

	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &authResp))

	refresh := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: authResp.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refresh.Code)

	var refreshResp RefreshTokenResponse
	require.NoError(t, json.Unmarshal(refresh.Body.Bytes(), &refreshResp))
	assert.NotEmpty(t, refreshResp.AccessToken)
	assert.NotEmpty(t, refreshResp.RefreshToken)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	t.Parallel()

	student := newAuthTestStudent(t, 42, "correct-password")
	handler := newAuthHandler(t, &stubStudentStore{student: student})

	login := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
		StudentNumber: 42,
		Password:      "correct-password",
	})
	require.Equal(t, http.StatusOK, login.Code)

	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &authResp))

	// An access token presented as a refresh token must be rejected.
	refresh := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
		RefreshToken: authResp.AccessToken,
	})
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)
}
