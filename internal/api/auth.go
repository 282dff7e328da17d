package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rbining/fablock-core/internal/auth"
)

// loginRequest is the POST /auth/login payload.
type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginResponse carries the issued session token.
type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// handleLogin exchanges admin credentials for a session token. A wrong name
// and a wrong password are indistinguishable in the response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Password == "" {
		writeBadRequest(w, "name and password are required")
		return
	}

	admin, err := s.admins.GetByName(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("admin lookup failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if !auth.Verify(req.Password, admin.PasswordDigest) {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, err := auth.GenerateSessionToken(admin, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("session token generation failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Name: admin.Name})
}
