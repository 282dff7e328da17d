package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rbining/fablock-core/internal/qualification"
)

// qualificationRequest is the create/update payload for qualifications.
type qualificationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Colour      *string `json:"colour"`
	OrderNr     *int    `json:"order_nr"`
}

func (s *Server) handleListQualifications(w http.ResponseWriter, r *http.Request) {
	quals, err := s.qualifications.List(r.Context())
	if err != nil {
		s.logger.Error("listing qualifications failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if quals == nil {
		quals = []qualification.Qualification{}
	}
	writeJSON(w, http.StatusOK, quals)
}

func (s *Server) handleCreateQualification(w http.ResponseWriter, r *http.Request) {
	var req qualificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	q := &qualification.Qualification{Name: *req.Name}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.Colour != nil {
		q.Colour = *req.Colour
	}
	if req.OrderNr != nil {
		q.OrderNr = *req.OrderNr
	}

	if err := s.qualifications.Create(r.Context(), q); err != nil {
		s.writeQualificationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleGetQualification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := s.qualifications.GetByID(r.Context(), id)
	if err != nil {
		s.writeQualificationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleUpdateQualification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := s.qualifications.GetByID(r.Context(), id)
	if err != nil {
		s.writeQualificationError(w, err)
		return
	}

	var req qualificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		q.Name = *req.Name
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.Colour != nil {
		q.Colour = *req.Colour
	}
	if req.OrderNr != nil {
		q.OrderNr = *req.OrderNr
	}

	if err := s.qualifications.Update(r.Context(), q); err != nil {
		s.writeQualificationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleDeleteQualification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.qualifications.Delete(r.Context(), id); err != nil {
		s.writeQualificationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeQualificationError maps qualification repository errors onto HTTP responses.
func (s *Server) writeQualificationError(w http.ResponseWriter, err error) {
	if errors.Is(err, qualification.ErrNotFound) {
		writeNotFound(w, "qualification not found")
		return
	}
	s.logger.Error("qualification operation failed", "error", err)
	writeInternalError(w, "internal server error")
}
