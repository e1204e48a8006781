package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/storage"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	recentAppointments = 5
	defaultAvatarBytes = 5 << 20
	sniffLen           = 512
)

// avatarTypes maps the accepted image types to their stored extension.
var avatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (*response.UserResponse, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*response.DashboardResponse, error)
	ListAppointments(ctx context.Context, userID uuid.UUID, req *request.AppointmentListRequest) (*response.AppointmentListResponse, error)
}

type userService struct {
	repo     *repository.Repository
	config   *utils.Config
	calendar *schedule.Calendar
	avatars  storage.AvatarStore
	log      *zap.Logger
}

func NewUserService(repo *repository.Repository, config *utils.Config, calendar *schedule.Calendar, avatars storage.AvatarStore, log *zap.Logger) UserService {
	return &userService{
		repo:     repo,
		config:   config,
		calendar: calendar,
		avatars:  avatars,
		log:      log.With(zap.String("service", "user")),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.TimeOfBirth != nil {
		user.TimeOfBirth = req.TimeOfBirth
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if err := applyBirthDetails(user, req.DateOfBirth, req.PlaceOfBirth); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.log.Error("Failed to update profile", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, internalError(err)
	}

	resp := response.UserToResponse(user, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

// UploadAvatar stores a profile picture of size bytes and points the user at
// it. The image type is sniffed from the content, not taken from the client.
func (s *userService) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (*response.UserResponse, error) {
	if s.avatars == nil {
		return nil, utils.NewError(utils.CodeUpstream, "Avatar uploads are not available")
	}

	limit := s.config.Storage.MaxAvatarBytes
	if limit <= 0 {
		limit = defaultAvatarBytes
	}
	if size <= 0 {
		return nil, utils.NewError(utils.CodeInvalidRequest, "No file uploaded")
	}
	if size > limit {
		return nil, utils.NewError(utils.CodeInvalidRequest, fmt.Sprintf("Image must be under %dMB", limit>>20))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, utils.NewError(utils.CodeInvalidRequest, "Could not read image")
	}
	head = head[:n]

	contentType := mimetype.Detect(head).String()
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, utils.NewError(utils.CodeInvalidRequest, "Please upload a JPEG, PNG, WebP or GIF image")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	url, err := s.avatars.Put(ctx, key, contentType, io.MultiReader(bytes.NewReader(head), file), size)
	if err != nil {
		s.log.Error("Failed to store avatar", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, utils.WrapError(utils.CodeUpstream, "Could not store image", err)
	}

	if err := s.repo.User.UpdateAvatar(ctx, userID, url); err != nil {
		s.log.Error("Failed to save avatar", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, internalError(err)
	}
	user.AvatarURL = &url

	s.log.Info("Avatar updated", zap.String("user_id", userID.String()), zap.String("key", key))

	resp := response.UserToResponse(user, isAdmin(s.config, user.Role, user.Email))
	return &resp, nil
}

// Dashboard summarises the caller's appointments.
func (s *userService) Dashboard(ctx context.Context, userID uuid.UUID) (*response.DashboardResponse, error) {
	stats, err := s.repo.Appointment.Stats(ctx, &userID)
	if err != nil {
		return nil, internalError(err)
	}

	recent, err := s.repo.Appointment.FindAll(ctx, repository.AppointmentFilter{UserID: &userID}, recentAppointments, 0)
	if err != nil {
		return nil, internalError(err)
	}

	next, err := s.repo.Appointment.FindNextUpcoming(ctx, userID, s.calendar.Current())
	if err != nil {
		return nil, internalError(err)
	}

	resp := &response.DashboardResponse{
		Stats: response.UserStats{
			TotalAppointments:     stats.Total,
			UpcomingAppointments:  stats.Confirmed,
			PendingAppointments:   stats.Pending,
			CompletedAppointments: stats.Completed,
			CancelledAppointments: stats.Cancelled,
		},
		RecentAppointments: make([]response.AppointmentResponse, 0, len(recent)),
	}
	for _, a := range recent {
		resp.RecentAppointments = append(resp.RecentAppointments, response.AppointmentToResponse(&a.Appointment))
	}
	if next != nil {
		n := response.AppointmentToResponse(next)
		resp.NextAppointment = &n
	}

	return resp, nil
}

func (s *userService) ListAppointments(ctx context.Context, userID uuid.UUID, req *request.AppointmentListRequest) (*response.AppointmentListResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	filter, err := appointmentFilter(s.calendar, req)
	if err != nil {
		return nil, err
	}
	filter.UserID = &userID

	return listAppointments(ctx, s.repo, filter, req.PaginatedRequest, false)
}

func (s *userService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil {
		return nil, utils.NewError(utils.CodeNotFound, "User not found")
	}
	return user, nil
}

// ==================== SHARED LISTING ====================

func appointmentFilter(calendar *schedule.Calendar, req *request.AppointmentListRequest) (repository.AppointmentFilter, error) {
	filter := repository.AppointmentFilter{Status: entity.AppointmentStatus(req.Status)}
	if req.Date != "" {
		day, err := calendar.ParseDate(req.Date)
		if err != nil {
			return filter, utils.NewError(utils.CodeInvalidRequest, "Invalid date")
		}
		filter.Date = &day
	}
	return filter, nil
}

func listAppointments(ctx context.Context, repo *repository.Repository, filter repository.AppointmentFilter, page request.PaginatedRequest, withClient bool) (*response.AppointmentListResponse, error) {
	items, err := repo.Appointment.FindAll(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, internalError(err)
	}
	total, err := repo.Appointment.Count(ctx, filter)
	if err != nil {
		return nil, internalError(err)
	}

	resp := &response.AppointmentListResponse{
		Appointments: make([]response.AppointmentResponse, 0, len(items)),
		Pagination:   response.NewPaginationMeta(max(page.Page, 1), page.Limit(), total),
	}
	for _, a := range items {
		if withClient {
			resp.Appointments = append(resp.Appointments, response.AppointmentWithClientToResponse(a))
		} else {
			resp.Appointments = append(resp.Appointments, response.AppointmentToResponse(&a.Appointment))
		}
	}
	return resp, nil
}
