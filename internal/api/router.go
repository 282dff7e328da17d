package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rbining/fablock-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.principalMiddleware)

	// Machine protocol: line-oriented text for embedded controllers.
	// Basic device auth; the controller must authenticate as the mac it
	// queries. Only the v2 config path auto-provisions unknown macs.
	r.Route("/machine", func(r chi.Router) {
		r.Route("/v1/{mac}", func(r chi.Router) {
			r.Get("/config", s.handleMachineConfigV1)
			r.Get("/permissions", s.handleMachinePermissionsV1)
		})
		r.Route("/v2/{mac}", func(r chi.Router) {
			r.Get("/config", s.handleMachineConfigV2)
			r.Get("/permissions", s.handleMachinePermissionsV2)
		})
	})

	// Admin API
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// User endpoints
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.requireAction(auth.ActionUserRead, s.handleListUsers))
			r.Post("/", s.requireAction(auth.ActionUserCreate, s.handleCreateUser))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.requireAction(auth.ActionUserRead, s.handleGetUser))
				r.Patch("/", s.requireAction(auth.ActionUserEdit, s.handleUpdateUser))
				r.Delete("/", s.requireAction(auth.ActionUserDelete, s.handleDeleteUser))

				r.Get("/qualifications", s.requireAction(auth.ActionUserRead, s.handleListUserQualifications))
				r.Post("/qualifications", s.requireAction(auth.ActionUserQualificationAdd, s.handleAddUserQualification))
				r.Delete("/qualifications/{qualificationID}", s.requireAction(auth.ActionUserQualificationRemove, s.handleRemoveUserQualification))
			})
		})

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.requireAction(auth.ActionDeviceRead, s.handleListDevices))
			r.Post("/", s.requireAction(auth.ActionDeviceCreate, s.handleCreateDevice))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.requireAction(auth.ActionDeviceRead, s.handleGetDevice))
				r.Patch("/", s.requireAction(auth.ActionDeviceEdit, s.handleUpdateDevice))
				r.Delete("/", s.requireAction(auth.ActionDeviceDelete, s.handleDeleteDevice))
				r.Put("/secret", s.requireAction(auth.ActionDeviceEdit, s.handleSetDeviceSecret))
				r.Get("/tools", s.requireAction(auth.ActionToolRead, s.handleListDeviceTools))
			})
		})

		// Tool endpoints
		r.Route("/tools", func(r chi.Router) {
			r.Get("/", s.requireAction(auth.ActionToolRead, s.handleListTools))
			r.Post("/", s.requireAction(auth.ActionToolCreate, s.handleCreateTool))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.requireAction(auth.ActionToolRead, s.handleGetTool))
				r.Patch("/", s.requireAction(auth.ActionToolEdit, s.handleUpdateTool))
				r.Delete("/", s.requireAction(auth.ActionToolDelete, s.handleDeleteTool))
				r.Put("/qualifications", s.requireAction(auth.ActionToolEdit, s.handleSetToolQualifications))
			})
		})

		// Qualification endpoints
		r.Route("/qualifications", func(r chi.Router) {
			r.Get("/", s.requireAction(auth.ActionQualificationRead, s.handleListQualifications))
			r.Post("/", s.requireAction(auth.ActionQualificationCreate, s.handleCreateQualification))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.requireAction(auth.ActionQualificationRead, s.handleGetQualification))
				r.Patch("/", s.requireAction(auth.ActionQualificationEdit, s.handleUpdateQualification))
				r.Delete("/", s.requireAction(auth.ActionQualificationDelete, s.handleDeleteQualification))
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
