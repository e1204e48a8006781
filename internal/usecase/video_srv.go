package usecase

import (
	"context"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/request"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/video"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

// roomGrace keeps a room open after the consultation is scheduled to end.
const roomGrace = time.Hour

type VideoService interface {
	CreateRoom(ctx context.Context, caller Principal, appointmentID string) (*response.RoomResponse, error)
	MeetingToken(ctx context.Context, caller Principal, appointmentID string) (*response.MeetingTokenResponse, error)
	CallStatus(ctx context.Context, caller Principal, appointmentID string, req *request.CallStatusRequest) error
}

type videoService struct {
	repo     *repository.Repository
	provider video.Provider
	tokens   *video.TokenIssuer
	calendar *schedule.Calendar
	log      *zap.Logger
}

func NewVideoService(repo *repository.Repository, provider video.Provider, tokens *video.TokenIssuer, calendar *schedule.Calendar, log *zap.Logger) VideoService {
	return &videoService{
		repo:     repo,
		provider: provider,
		tokens:   tokens,
		calendar: calendar,
		log:      log.With(zap.String("service", "video")),
	}
}

func (s *videoService) CreateRoom(ctx context.Context, caller Principal, appointmentID string) (*response.RoomResponse, error) {
	appointment, err := findAppointment(ctx, s.repo, caller, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entity.AppointmentConfirmed {
		return nil, utils.NewError(utils.CodeInvalidState, "Video rooms are only available for confirmed appointments")
	}

	if appointment.RoomName != nil && appointment.RoomURL != nil {
		return &response.RoomResponse{RoomName: *appointment.RoomName, RoomURL: *appointment.RoomURL}, nil
	}

	expires := s.roomExpiry(appointment)
	room, err := s.provider.CreateRoom(ctx, video.RoomName(appointment.ID.String()), expires)
	if err != nil {
		s.log.Error("Failed to create video room", zap.Error(err), zap.String("appointment_id", appointment.ID.String()))
		return nil, utils.WrapError(utils.CodeUpstream, "Video service is unavailable, please try again", err)
	}

	if err := s.repo.Appointment.SetRoom(ctx, appointment.ID, room.Name, room.URL); err != nil {
		return nil, internalError(err)
	}

	s.log.Info("Video room ready",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("room", room.Name),
	)

	return &response.RoomResponse{RoomName: room.Name, RoomURL: room.URL}, nil
}

// MeetingToken issues a join token for the appointment's room. Admins join
// as the room owner.
func (s *videoService) MeetingToken(ctx context.Context, caller Principal, appointmentID string) (*response.MeetingTokenResponse, error) {
	appointment, err := findAppointment(ctx, s.repo, caller, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entity.AppointmentConfirmed {
		return nil, utils.NewError(utils.CodeInvalidState, "Video calls are only available for confirmed appointments")
	}
	if appointment.RoomName == nil || appointment.RoomURL == nil {
		return nil, utils.NewError(utils.CodeNotFound, "Video room has not been created yet")
	}

	userName := "Astrologer"
	if !caller.IsAdmin {
		user, err := s.repo.User.FindByID(ctx, caller.UserID)
		if err != nil {
			return nil, internalError(err)
		}
		if user != nil {
			userName = user.FullName()
		}
	}

	token, expiresAt, err := s.tokens.Issue(*appointment.RoomName, userName, caller.IsAdmin)
	if err != nil {
		return nil, internalError(err)
	}

	return &response.MeetingTokenResponse{
		Token:     token,
		RoomURL:   *appointment.RoomURL,
		IsOwner:   caller.IsAdmin,
		ExpiresAt: expiresAt,
	}, nil
}

// CallStatus records a join or leave for audit.
func (s *videoService) CallStatus(ctx context.Context, caller Principal, appointmentID string, req *request.CallStatusRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	appointment, err := findAppointment(ctx, s.repo, caller, appointmentID)
	if err != nil {
		return err
	}

	event := entity.CallEventType(req.Status)
	switch {
	case event == entity.CallStarted && appointment.Status != entity.AppointmentConfirmed:
		return utils.NewError(utils.CodeInvalidState, "Only confirmed appointments can start a call")
	case event == entity.CallEnded && appointment.Status != entity.AppointmentConfirmed && appointment.Status != entity.AppointmentCompleted:
		return utils.NewError(utils.CodeInvalidState, "Call is not in progress")
	}

	now := time.Now()
	if err := s.repo.Appointment.MarkCall(ctx, appointment.ID, event, now); err != nil {
		return internalError(err)
	}
	if err := s.repo.CallEvent.Create(ctx, &entity.CallEvent{
		BaseSimple:    entity.NewBaseSimple(now),
		AppointmentID: appointment.ID,
		UserID:        caller.UserID,
		Event:         event,
	}); err != nil {
		s.log.Warn("Failed to record call event", zap.Error(err), zap.String("appointment_id", appointment.ID.String()))
	}

	return nil
}

func (s *videoService) roomExpiry(a *entity.Appointment) time.Time {
	start, err := s.calendar.StartOf(a.AppointmentDate, a.AppointmentTime)
	if err != nil {
		return time.Now().Add(24 * time.Hour)
	}
	return start.Add(time.Duration(a.PackageDuration)*time.Minute + roomGrace)
}
