package adaptor

import (
	"errors"
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

// avatarFormLimit caps the whole multipart body; the service enforces the
// configured image size.
const avatarFormLimit = 10 << 20

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /api/user/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), caller.UserID)
	if err != nil {
		handleServiceError(h.log, w, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", map[string]any{"user": profile})
}

// UpdateProfile handles PUT /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	var req request.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), caller.UserID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated successfully", map[string]any{"user": profile})
}

// UploadAvatar handles POST /api/user/avatar with the image in the "avatar"
// multipart field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, avatarFormLimit)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseBadRequest(w, "Image is too large", nil)
			return
		}
		utils.ResponseBadRequest(w, "No file uploaded", nil)
		return
	}
	defer file.Close()

	profile, err := h.service.UploadAvatar(r.Context(), caller.UserID, file, header.Size)
	if err != nil {
		handleServiceError(h.log, w, err, "upload avatar")
		return
	}

	utils.ResponseSuccess(w, "Avatar updated successfully", map[string]any{"user": profile})
}

// Dashboard handles GET /api/user/dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), caller.UserID)
	if err != nil {
		handleServiceError(h.log, w, err, "load dashboard")
		return
	}

	utils.ResponseSuccess(w, "", dashboard)
}

// ListAppointments handles GET /api/user/appointments
func (h *UserHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListAppointments(r.Context(), caller.UserID, appointmentListRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list appointments")
		return
	}

	utils.ResponseSuccess(w, "", list)
}

func appointmentListRequest(r *http.Request) *request.AppointmentListRequest {
	query := r.URL.Query()
	return &request.AppointmentListRequest{
		PaginatedRequest: paginationRequest(r),
		Status:           query.Get("status"),
		Date:             query.Get("date"),
	}
}

func paginationRequest(r *http.Request) request.PaginatedRequest {
	page := request.PaginationFromQuery(r.URL.Query())
	if page.PerPage > 100 {
		page.PerPage = 100
	}
	return page
}
