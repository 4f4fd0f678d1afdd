package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"teleplay/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil || s.credentials == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return
	}

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	creds, err := s.catalog.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if err := s.credentials.Save(r.Context(), creds); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return
	}

	var body sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := s.catalog.SendOTP(r.Context(), body.Email); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return
	}

	var body verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(body.Email) == "" || strings.TrimSpace(body.OTP) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and otp are required")
		return
	}

	if err := s.catalog.VerifyOTP(r.Context(), body.Email, body.OTP); err != nil {
		writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSignup registers the account after OTP verification. The backend
// hands back a token only; the user id is filled in by the next login.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil || s.credentials == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return
	}

	var body signupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	creds, err := s.catalog.Register(r.Context(), body.Name, body.Email, body.Phone, body.Password)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if err := s.credentials.Save(r.Context(), creds); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to persist session")
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.credentials == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return
	}

	if err := s.credentials.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUser loads the stored identity for endpoints that act on behalf of
// the signed-in user. Writes the error response itself when absent.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.credentials == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "auth not configured")
		return "", false
	}
	creds, err := s.credentials.Load(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
			return "", false
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return "", false
	}
	return creds.UserID, true
}
