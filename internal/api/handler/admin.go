package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campuslock/lockerd/internal/api/middleware"
	"github.com/campuslock/lockerd/internal/api/request"
	"github.com/campuslock/lockerd/internal/api/response"
	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/services/auth"
	"github.com/campuslock/lockerd/internal/services/rental"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	authService      *auth.Service
	rentalController *rental.Controller
	auditService     *audit.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *auth.Service, rentalController *rental.Controller, auditService *audit.Service) *AdminHandler {
	return &AdminHandler{
		authService:      authService,
		rentalController: rentalController,
		auditService:     auditService,
	}
}

// ForceReturn handles POST /api/v1/admin/lockers/{id}/force-return
func (h *AdminHandler) ForceReturn(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	admin := middleware.MustGetUser(r.Context())

	penalty, err := h.rentalController.ForceReturn(r.Context(), model.AuditActor(admin.Email), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReturnResponse{Penalty: penalty})
}

// UpdateLockerStatus handles PATCH /api/v1/admin/lockers/{id}/status
func (h *AdminHandler) UpdateLockerStatus(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateLockerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Status == "" {
		WriteError(w, NewInvalidRequestError("status is required"))
		return
	}

	admin := middleware.MustGetUser(r.Context())

	if err := h.rentalController.UpdateStatus(r.Context(), model.AuditActor(admin.Email), id, model.LockerStatus(req.Status)); err != nil {
		WriteError(w, err)
		return
	}

	locker, err := h.rentalController.GetLocker(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LockerFromModel(locker))
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserListFromModel(users))
}

// RemoveUser handles DELETE /api/v1/admin/users/{id}
func (h *AdminHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	idStr := muxVar(r, "id")
	if idStr == "" {
		WriteError(w, NewInvalidRequestError("invalid user id"))
		return
	}

	admin := middleware.MustGetUser(r.Context())

	if err := h.authService.RemoveUser(r.Context(), model.AuditActor(admin.Email), model.UserID(idStr)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ListAuditLog handles GET /api/v1/admin/audit-log
func (h *AdminHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auditService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuditLogFromModel(entries))
}
