package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rbining/fablock-core/internal/auth"
	"github.com/rbining/fablock-core/internal/device"
)

// deviceRequest is the create/update payload for devices. The device secret
// is accepted in plaintext and stored as a digest; it never leaves the
// backend again.
type deviceRequest struct {
	Name             *string `json:"name"`
	Mac              *string `json:"mac"`
	Secret           *string `json:"secret"`
	BackgroundURL    *string `json:"background_url"`
	BackupBackendURL *string `json:"backup_backend_url"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Mac == nil || *req.Mac == "" {
		writeBadRequest(w, "mac is required")
		return
	}

	dev := &device.Device{Mac: *req.Mac}
	if req.Name != nil {
		dev.Name = *req.Name
	}
	if dev.Name == "" {
		dev.Name = "New Device " + dev.Mac
	}
	if req.Secret != nil && *req.Secret != "" {
		dev.SecretDigest = auth.Digest(*req.Secret)
	}
	if req.BackgroundURL != nil {
		dev.BackgroundURL = *req.BackgroundURL
	}
	if req.BackupBackendURL != nil {
		dev.BackupBackendURL = *req.BackupBackendURL
	}

	if err := s.devices.Create(r.Context(), dev); err != nil {
		s.writeDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	dev, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		s.writeDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	dev, err := s.devices.GetByID(r.Context(), id)
	if err != nil {
		s.writeDeviceError(w, err)
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		dev.Name = *req.Name
	}
	if req.Mac != nil && *req.Mac != "" {
		dev.Mac = *req.Mac
	}
	if req.BackgroundURL != nil {
		dev.BackgroundURL = *req.BackgroundURL
	}
	if req.BackupBackendURL != nil {
		dev.BackupBackendURL = *req.BackupBackendURL
	}

	if err := s.devices.Update(r.Context(), dev); err != nil {
		s.writeDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.devices.Delete(r.Context(), id); err != nil {
		s.writeDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetDeviceSecret rotates a device's shared secret.
func (s *Server) handleSetDeviceSecret(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Secret == "" {
		writeBadRequest(w, "secret is required")
		return
	}

	if err := s.devices.UpdateSecret(r.Context(), id, auth.Digest(req.Secret)); err != nil {
		s.writeDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDeviceTools returns all of a device's tools in pin order,
// including disabled ones: this is the admin view, not the controller view.
func (s *Server) handleListDeviceTools(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.devices.GetByID(r.Context(), id); err != nil {
		s.writeDeviceError(w, err)
		return
	}

	tools, err := s.tools.ListForDevice(r.Context(), id)
	if err != nil {
		s.logger.Error("listing device tools failed", "device_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if tools == nil {
		tools = []device.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

// writeDeviceError maps device repository errors onto HTTP responses.
func (s *Server) writeDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, device.ErrMacExists):
		writeConflict(w, "mac already registered")
	default:
		s.logger.Error("device operation failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
