package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rbining/fablock-core/internal/qualification"
	"github.com/rbining/fablock-core/internal/user"
)

// userRequest is the create/update payload for users. Pointer fields
// distinguish "absent" from "set to zero value" on patch.
type userRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	WikiName    *string `json:"wiki_name"`
	PhoneNumber *string `json:"phone_number"`
	Locked      *bool   `json:"locked"`
	LockReason  *string `json:"lock_reason"`
	CardID      *string `json:"card_id"`
	CardSecret  *string `json:"card_secret"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("listing users failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.FirstName == nil || *req.FirstName == "" || req.LastName == nil || *req.LastName == "" {
		writeBadRequest(w, "first_name and last_name are required")
		return
	}
	if req.PhoneNumber == nil || *req.PhoneNumber == "" {
		writeBadRequest(w, "phone_number is required")
		return
	}

	u := &user.User{
		FirstName:   *req.FirstName,
		LastName:    *req.LastName,
		PhoneNumber: *req.PhoneNumber,
	}
	if req.WikiName != nil {
		u.WikiName = *req.WikiName
	}
	if req.CardID != nil {
		u.CardID = *req.CardID
	}
	if req.CardSecret != nil {
		u.CardSecret = *req.CardSecret
	}

	if err := s.users.Create(r.Context(), u); err != nil {
		s.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	u, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	u, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.writeUserError(w, err)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.WikiName != nil {
		u.WikiName = *req.WikiName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.Locked != nil {
		u.Locked = *req.Locked
	}
	if req.LockReason != nil {
		u.LockReason = *req.LockReason
	}
	if req.CardID != nil {
		u.CardID = *req.CardID
	}
	if req.CardSecret != nil {
		u.CardSecret = *req.CardSecret
	}

	if err := s.users.Update(r.Context(), u); err != nil {
		s.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		s.writeUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUserQualifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.users.GetByID(r.Context(), id); err != nil {
		s.writeUserError(w, err)
		return
	}

	ids, err := s.users.QualificationIDs(r.Context(), id)
	if err != nil {
		s.logger.Error("listing user qualifications failed", "user_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"qualification_ids": ids})
}

// handleAddUserQualification grants a qualification to a user. Repeated
// grants are accepted as no-ops.
func (s *Server) handleAddUserQualification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		QualificationID int64 `json:"qualification_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QualificationID < 1 {
		writeBadRequest(w, "qualification_id is required")
		return
	}

	if _, err := s.users.GetByID(r.Context(), id); err != nil {
		s.writeUserError(w, err)
		return
	}
	if _, err := s.qualifications.GetByID(r.Context(), req.QualificationID); err != nil {
		if errors.Is(err, qualification.ErrNotFound) {
			writeNotFound(w, "qualification not found")
			return
		}
		s.logger.Error("qualification lookup failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	if err := s.users.AddQualification(r.Context(), id, req.QualificationID); err != nil {
		s.logger.Error("adding user qualification failed", "user_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveUserQualification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	qualID, ok := pathID(w, r, "qualificationID")
	if !ok {
		return
	}

	if _, err := s.users.GetByID(r.Context(), id); err != nil {
		s.writeUserError(w, err)
		return
	}

	if err := s.users.RemoveQualification(r.Context(), id, qualID); err != nil {
		s.logger.Error("removing user qualification failed", "user_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeUserError maps user repository errors onto HTTP responses.
func (s *Server) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, user.ErrPhoneExists):
		writeConflict(w, "phone number already registered")
	case errors.Is(err, user.ErrCardIDExists):
		writeConflict(w, "card id already registered")
	case errors.Is(err, user.ErrCardPairing):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "card_id and card_secret must both be set or both be empty")
	default:
		s.logger.Error("user operation failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
