package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/campuslock/lockerd/internal/api/middleware"
	"github.com/campuslock/lockerd/internal/api/request"
	"github.com/campuslock/lockerd/internal/api/response"
	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/rental"
)

// LockerHandler handles locker rental endpoints
type LockerHandler struct {
	rentalController *rental.Controller
}

// NewLockerHandler creates a new locker handler
func NewLockerHandler(rentalController *rental.Controller) *LockerHandler {
	return &LockerHandler{
		rentalController: rentalController,
	}
}

// muxVar returns a path variable from the request
func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// lockerIDFromRequest parses the locker id path variable
func lockerIDFromRequest(r *http.Request) (model.LockerID, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, NewInvalidRequestError("invalid locker id")
	}
	return model.LockerID(id), nil
}

// List handles GET /api/v1/lockers
func (h *LockerHandler) List(w http.ResponseWriter, r *http.Request) {
	lockers, err := h.rentalController.ListLockers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LockerListFromModel(lockers))
}

// Get handles GET /api/v1/lockers/{id}
func (h *LockerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
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

// Rent handles POST /api/v1/lockers/{id}/rent
func (h *LockerHandler) Rent(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	user := middleware.MustGetUser(r.Context())

	locker, err := h.rentalController.Rent(r.Context(), model.AuditActor(user.Email), id, user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LockerFromModel(locker))
}

// Return handles POST /api/v1/lockers/{id}/return
func (h *LockerHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	user := middleware.MustGetUser(r.Context())

	penalty, err := h.rentalController.Return(r.Context(), model.AuditActor(user.Email), id, user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ReturnResponse{Penalty: penalty})
}

// GenerateAccessCode handles POST /api/v1/lockers/{id}/access-code
func (h *LockerHandler) GenerateAccessCode(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	user := middleware.MustGetUser(r.Context())

	code, err := h.rentalController.GenerateAccessCode(r.Context(), model.AuditActor(user.Email), id, user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	locker, err := h.rentalController.GetLocker(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccessCodeResponse{
		Code:      code,
		ExpiresAt: locker.AccessCodeExpiresAt,
	})
}

// VerifyAccessCode handles POST /api/v1/lockers/{id}/access-code/verify
func (h *LockerHandler) VerifyAccessCode(w http.ResponseWriter, r *http.Request) {
	id, err := lockerIDFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.VerifyAccessCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Code == "" {
		WriteError(w, NewInvalidRequestError("code is required"))
		return
	}

	if err := h.rentalController.VerifyAccessCode(r.Context(), id, req.Code); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
