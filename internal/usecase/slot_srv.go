package usecase

import (
	"context"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"go.uber.org/zap"
)

type SlotService interface {
	Available(ctx context.Context, date string) (*response.AvailableSlotsResponse, error)
}

type slotService struct {
	repo     *repository.Repository
	calendar *schedule.Calendar
	log      *zap.Logger
}

func NewSlotService(repo *repository.Repository, calendar *schedule.Calendar, log *zap.Logger) SlotService {
	return &slotService{
		repo:     repo,
		calendar: calendar,
		log:      log.With(zap.String("service", "slot")),
	}
}

// Available lists the slots on date that are neither held by a live
// appointment nor already started.
func (s *slotService) Available(ctx context.Context, date string) (*response.AvailableSlotsResponse, error) {
	if date == "" {
		return nil, utils.NewError(utils.CodeInvalidRequest, "Date is required")
	}

	day, err := s.calendar.ParseDate(date)
	if err != nil {
		return nil, utils.NewError(utils.CodeInvalidRequest, "Invalid date format, expected YYYY-MM-DD")
	}
	if !s.calendar.InHorizon(day) {
		return nil, utils.NewError(utils.CodeInvalidRequest, "Date is outside the booking window")
	}

	resp := &response.AvailableSlotsResponse{
		Date:           date,
		AvailableSlots: []schedule.Slot{},
	}
	if schedule.IsClosed(day) {
		return resp, nil
	}

	reserved, err := s.repo.Appointment.ReservedTimes(ctx, day)
	if err != nil {
		s.log.Error("Failed to load reserved slots", zap.Error(err), zap.String("date", date))
		return nil, internalError(err)
	}
	taken := make(map[string]bool, len(reserved))
	for _, t := range reserved {
		taken[t] = true
	}

	for _, slot := range schedule.Slots() {
		if taken[slot.Time] || s.calendar.Started(day, slot.Time) {
			continue
		}
		resp.AvailableSlots = append(resp.AvailableSlots, slot)
	}

	return resp, nil
}
