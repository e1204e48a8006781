package usecase

import (
	"strings"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/gateway"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/metrics"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/storage"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/task"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/video"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// External groups the collaborators that live outside the database.
type External struct {
	Catalog  *catalog.Catalog
	Calendar *schedule.Calendar
	Gateway  gateway.Gateway
	Video    video.Provider
	Tokens   *video.TokenIssuer
	Tasks    task.Enqueuer
	Metrics  *metrics.Metrics
	Avatars  storage.AvatarStore
}

type Service struct {
	Auth        AuthService
	User        UserService
	Catalog     CatalogService
	Slot        SlotService
	Appointment AppointmentService
	Payment     PaymentService
	Admin       AdminService
	Video       VideoService
}

func NewService(repo *repository.Repository, config *utils.Config, ext External, log *zap.Logger) *Service {
	return &Service{
		Auth:        NewAuthService(repo, config, ext.Tasks, log),
		User:        NewUserService(repo, config, ext.Calendar, ext.Avatars, log),
		Catalog:     NewCatalogService(ext.Catalog),
		Slot:        NewSlotService(repo, ext.Calendar, log),
		Appointment: NewAppointmentService(repo, config, ext, log),
		Payment:     NewPaymentService(repo, config, ext, log),
		Admin:       NewAdminService(repo, config, log),
		Video:       NewVideoService(repo, ext.Video, ext.Tokens, ext.Calendar, log),
	}
}

// Principal is the authenticated caller.
type Principal struct {
	UserID  uuid.UUID
	Role    entity.UserRole
	IsAdmin bool
}

// isAdmin grants admin by role or by the configured admin email list.
func isAdmin(config *utils.Config, role entity.UserRole, email string) bool {
	if role == entity.RoleAdmin {
		return true
	}
	for _, e := range config.App.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func validate(data any) error {
	if errs := utils.ValidateStruct(data); len(errs) > 0 {
		return utils.ValidationError("Validation failed", errs)
	}
	return nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.NewError(utils.CodeInvalidRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

func internalError(err error) error {
	return utils.WrapError(utils.CodeInternal, "Internal server error", err)
}

func ptr[T any](v T) *T { return &v }
