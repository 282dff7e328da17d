package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rbining/fablock-core/internal/device"
	"github.com/rbining/fablock-core/internal/qualification"
)

// toolRequest is the create/update payload for tools.
type toolRequest struct {
	DeviceID  *int64  `json:"device_id"`
	Pin       *int    `json:"pin"`
	Name      *string `json:"name"`
	Type      *string `json:"tool_type"`
	TimeMs    *int64  `json:"time_ms"`
	IdleState *string `json:"idle_state"`
	State     *string `json:"tool_state"`
	WikiLink  *string `json:"wiki_link"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.tools.List(r.Context())
	if err != nil {
		s.logger.Error("listing tools failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if tools == nil {
		tools = []device.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == nil || *req.DeviceID < 1 {
		writeBadRequest(w, "device_id is required")
		return
	}
	if req.Pin == nil || *req.Pin < 0 {
		writeBadRequest(w, "pin is required")
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if _, err := s.devices.GetByID(r.Context(), *req.DeviceID); err != nil {
		s.writeDeviceError(w, err)
		return
	}

	tool := &device.Tool{
		DeviceID:  *req.DeviceID,
		Pin:       *req.Pin,
		Name:      *req.Name,
		Type:      device.ToolTypeUnlock,
		IdleState: device.IdleLow,
		State:     device.ToolGood,
	}
	applyToolFields(tool, &req)

	if err := s.tools.Create(r.Context(), tool); err != nil {
		s.writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tool)
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tool, err := s.tools.GetByID(r.Context(), id)
	if err != nil {
		s.writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (s *Server) handleUpdateTool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tool, err := s.tools.GetByID(r.Context(), id)
	if err != nil {
		s.writeToolError(w, err)
		return
	}

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Pin != nil {
		tool.Pin = *req.Pin
	}
	if req.Name != nil {
		tool.Name = *req.Name
	}
	applyToolFields(tool, &req)

	if err := s.tools.Update(r.Context(), tool); err != nil {
		s.writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (s *Server) handleDeleteTool(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.tools.Delete(r.Context(), id); err != nil {
		s.writeToolError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetToolQualifications replaces a tool's required qualification set.
// An empty list makes the tool open to any matched user.
func (s *Server) handleSetToolQualifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		QualificationIDs []int64 `json:"qualification_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if _, err := s.tools.GetByID(r.Context(), id); err != nil {
		s.writeToolError(w, err)
		return
	}
	for _, qualID := range req.QualificationIDs {
		if _, err := s.qualifications.GetByID(r.Context(), qualID); err != nil {
			if errors.Is(err, qualification.ErrNotFound) {
				writeNotFound(w, "qualification not found")
				return
			}
			s.logger.Error("qualification lookup failed", "error", err)
			writeInternalError(w, "internal server error")
			return
		}
	}

	if err := s.tools.SetQualifications(r.Context(), id, req.QualificationIDs); err != nil {
		s.logger.Error("setting tool qualifications failed", "tool_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyToolFields copies the optional enum and metadata fields of a tool
// request onto the tool. Enum values are validated by the repository.
func applyToolFields(tool *device.Tool, req *toolRequest) {
	if req.Type != nil {
		tool.Type = device.ToolType(*req.Type)
	}
	if req.TimeMs != nil {
		tool.TimeMs = *req.TimeMs
	}
	if req.IdleState != nil {
		tool.IdleState = device.IdleState(*req.IdleState)
	}
	if req.State != nil {
		tool.State = device.ToolState(*req.State)
	}
	if req.WikiLink != nil {
		tool.WikiLink = *req.WikiLink
	}
}

// writeToolError maps tool repository errors onto HTTP responses.
func (s *Server) writeToolError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrToolNotFound):
		writeNotFound(w, "tool not found")
	case errors.Is(err, device.ErrPinInUse):
		writeConflict(w, "pin already in use on this device")
	case errors.Is(err, device.ErrInvalidTool):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error("tool operation failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
