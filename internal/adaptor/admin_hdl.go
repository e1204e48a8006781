package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	service usecase.AdminService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// ListAppointments handles GET /api/admin/appointments (admin only)
func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAppointments(r.Context(), appointmentListRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list all appointments")
		return
	}

	utils.ResponseSuccess(w, "", list)
}

// DashboardStats handles GET /api/admin/dashboard-stats (admin only)
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "load dashboard stats")
		return
	}

	utils.ResponseSuccess(w, "", stats)
}

// UpdateStatus handles PUT /api/admin/appointments/{id}/status (admin only)
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appointment, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update appointment status")
		return
	}

	utils.ResponseSuccess(w, "Appointment status updated", map[string]any{"appointment": appointment})
}

// ListUsers handles GET /api/admin/users (admin only)
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := paginationRequest(r)

	users, err := h.service.ListUsers(r.Context(), &page)
	if err != nil {
		handleServiceError(h.log, w, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// DeleteUser handles DELETE /api/admin/users/{id} (admin only)
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), caller.UserID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.log, w, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}
