package adaptor

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Catalog     *CatalogHandler
	Appointment *AppointmentHandler
	Review      *ReviewHandler
	Payment     *PaymentHandler
	Admin       *AdminHandler
	Video       *VideoHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		User:        NewUserHandler(service.User, log),
		Catalog:     NewCatalogHandler(service.Catalog),
		Appointment: NewAppointmentHandler(service.Appointment, service.Slot, log),
		Review:      NewReviewHandler(service.Appointment, log),
		Payment:     NewPaymentHandler(service.Payment, log),
		Admin:       NewAdminHandler(service.Admin, log),
		Video:       NewVideoHandler(service.Video, log),
	}
}

// decodeJSON reads the body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// handleServiceError renders a service error. Client errors are logged at
// warn, everything else at error.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	appErr := utils.AsAppError(err)

	if appErr.Status() >= http.StatusInternalServerError {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("code", appErr.Code))
	} else {
		log.Warn(operation+" failed", zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
	}

	utils.ResponseError(w, appErr)
}

// principal rebuilds the caller set by the AuthSession middleware.
func principal(w http.ResponseWriter, r *http.Request) (usecase.Principal, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Principal{}, false
	}
	return usecase.Principal{UserID: userID, IsAdmin: utils.IsAdminContext(r.Context())}, true
}

func clientMeta(r *http.Request) usecase.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return usecase.ClientMeta{UserAgent: r.UserAgent(), IPAddress: ip}
}
