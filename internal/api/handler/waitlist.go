package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campuslock/lockerd/internal/api/middleware"
	"github.com/campuslock/lockerd/internal/api/request"
	"github.com/campuslock/lockerd/internal/api/response"
	"github.com/campuslock/lockerd/internal/services/waitlist"
)

// WaitlistHandler handles waitlist endpoints
type WaitlistHandler struct {
	waitlistService *waitlist.Service
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(waitlistService *waitlist.Service) *WaitlistHandler {
	return &WaitlistHandler{
		waitlistService: waitlistService,
	}
}

// Join handles POST /api/v1/waitlist
// The email defaults to the session user's email if not provided.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinWaitlistRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	email := req.Email
	if email == "" {
		email = middleware.MustGetUser(r.Context()).Email
	}

	if err := h.waitlistService.Join(r.Context(), email); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/waitlist
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.waitlistService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Waitlist{Entries: entries})
}
