package usecase

import (
	"context"
	"errors"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminService interface {
	ListAppointments(ctx context.Context, req *request.AppointmentListRequest) (*response.AppointmentListResponse, error)
	DashboardStats(ctx context.Context) (*response.AdminStatsResponse, error)
	UpdateStatus(ctx context.Context, appointmentID string, req *request.UpdateStatusRequest) (*response.AppointmentResponse, error)
	ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.UserListResponse, error)
	DeleteUser(ctx context.Context, callerID uuid.UUID, userID string) error
}

// allowedTransitions lists the status changes an admin may make. Only a
// verified payment moves an appointment to confirmed.
var allowedTransitions = map[entity.AppointmentStatus][]entity.AppointmentStatus{
	entity.AppointmentCompleted: {entity.AppointmentConfirmed},
	entity.AppointmentCancelled: {entity.AppointmentPending, entity.AppointmentConfirmed},
}

type adminService struct {
	repo     *repository.Repository
	config   *utils.Config
	calendar *schedule.Calendar
	log      *zap.Logger
}

func NewAdminService(repo *repository.Repository, config *utils.Config, log *zap.Logger) AdminService {
	return &adminService{
		repo:     repo,
		config:   config,
		calendar: schedule.NewCalendar(config.Booking.Timezone, config.Booking.HorizonDays),
		log:      log.With(zap.String("service", "admin")),
	}
}

func (s *adminService) ListAppointments(ctx context.Context, req *request.AppointmentListRequest) (*response.AppointmentListResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	filter, err := appointmentFilter(s.calendar, req)
	if err != nil {
		return nil, err
	}

	return listAppointments(ctx, s.repo, filter, req.PaginatedRequest, true)
}

func (s *adminService) DashboardStats(ctx context.Context) (*response.AdminStatsResponse, error) {
	stats, err := s.repo.Appointment.Stats(ctx, nil)
	if err != nil {
		return nil, internalError(err)
	}

	users, err := s.repo.User.CountAll(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	rating, reviews, err := s.repo.Review.AverageRating(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	return &response.AdminStatsResponse{
		Stats: response.AdminStats{
			TotalAppointments:     stats.Total,
			PendingAppointments:   stats.Pending,
			ConfirmedAppointments: stats.Confirmed,
			CompletedAppointments: stats.Completed,
			CancelledAppointments: stats.Cancelled,
			TotalRevenue:          stats.Revenue,
			TotalUsers:            users,
			AverageRating:         rating,
			ReviewCount:           reviews,
		},
	}, nil
}

func (s *adminService) UpdateStatus(ctx context.Context, appointmentID string, req *request.UpdateStatusRequest) (*response.AppointmentResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID(appointmentID, "appointment")
	if err != nil {
		return nil, err
	}

	to := entity.AppointmentStatus(req.Status)
	from, ok := allowedTransitions[to]
	if !ok {
		return nil, utils.NewError(utils.CodeInvalidState, "Appointments can only be confirmed by a verified payment")
	}

	appointment, err := s.repo.Appointment.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(err)
	}
	if appointment == nil {
		return nil, utils.NewError(utils.CodeNotFound, "Appointment not found")
	}
	if !containsStatus(from, appointment.Status) {
		return nil, utils.NewError(utils.CodeInvalidState,
			"Cannot change status from "+string(appointment.Status)+" to "+string(to))
	}

	err = s.repo.Appointment.TransitionStatus(ctx, id, from, to, req.Reason)
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, utils.NewError(utils.CodeConflict, "Appointment was updated by another request")
	}
	if err != nil {
		return nil, internalError(err)
	}

	s.log.Info("Appointment status updated",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(appointment.Status)),
		zap.String("to", string(to)),
	)

	updated, err := s.repo.Appointment.FindByID(ctx, id)
	if err != nil || updated == nil {
		appointment.Status = to
		updated = appointment
	}

	resp := response.AppointmentToResponse(updated)
	return &resp, nil
}

func (s *adminService) ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.UserListResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	users, err := s.repo.User.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, internalError(err)
	}
	total, err := s.repo.User.CountAll(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	resp := &response.UserListResponse{
		Users:      make([]response.UserResponse, 0, len(users)),
		Pagination: response.NewPaginationMeta(max(req.Page, 1), req.Limit(), total),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, response.UserToResponse(u, isAdmin(s.config, u.Role, u.Email)))
	}
	return resp, nil
}

// DeleteUser soft-deletes the account and ends its sessions.
func (s *adminService) DeleteUser(ctx context.Context, callerID uuid.UUID, userID string) error {
	id, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	if id == callerID {
		return utils.NewError(utils.CodeInvalidRequest, "You cannot delete your own account")
	}

	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return utils.NewError(utils.CodeNotFound, "User not found")
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		return internalError(err)
	}
	if err := s.repo.Session.RevokeAllUserSessions(ctx, id); err != nil {
		s.log.Warn("Failed to revoke sessions of deleted user", zap.Error(err), zap.String("user_id", id.String()))
	}

	s.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

func containsStatus(list []entity.AppointmentStatus, status entity.AppointmentStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
