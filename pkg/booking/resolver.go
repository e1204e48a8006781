// Package booking drives a client through slot selection, draft submission
// and the payment handshake against the astrologix API.
package booking

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
)

// SlotSource is the server side slot lookup.
type SlotSource interface {
	AvailableSlots(ctx context.Context, date string) ([]schedule.Slot, error)
}

// SlotResult separates "nothing open" (empty Slots) from "could not ask"
// (ServiceUnavailable).
type SlotResult struct {
	Slots              []schedule.Slot
	ServiceUnavailable bool
}

type Resolver struct {
	source   SlotSource
	calendar *schedule.Calendar
}

func NewResolver(source SlotSource, calendar *schedule.Calendar) *Resolver {
	return &Resolver{source: source, calendar: calendar}
}

// AvailableSlots returns the open slots on date. Dates outside the booking
// window and Sundays are answered without asking the server.
func (r *Resolver) AvailableSlots(ctx context.Context, date string) (SlotResult, error) {
	const op = "available slots"

	day, err := r.calendar.ParseDate(date)
	if err != nil {
		return SlotResult{}, validationError(op, "Please choose a valid date", map[string]string{"date": "invalid date"})
	}
	if !r.calendar.InHorizon(day) {
		e := validationError(op, "Appointments can be booked up to 30 days ahead", map[string]string{"date": "out of range"})
		e.Err = ErrDateOutOfRange
		return SlotResult{}, e
	}
	if schedule.IsClosed(day) {
		return SlotResult{Slots: []schedule.Slot{}}, nil
	}

	served, err := r.source.AvailableSlots(ctx, date)
	if err != nil {
		if apiErr, ok := client.AsAPIError(err); ok && apiErr.Status < http.StatusInternalServerError && apiErr.Status != http.StatusTooManyRequests {
			return SlotResult{}, classify(op, err)
		}
		return SlotResult{Slots: []schedule.Slot{}, ServiceUnavailable: true}, &Error{
			Kind:    KindTransient,
			Op:      op,
			Message: "Could not load available times, please try again",
			Err:     errors.Join(ErrServiceUnavailable, err),
		}
	}

	return SlotResult{Slots: intersect(served)}, nil
}

// intersect keeps the fixed daily slots the server reported open, in
// calendar order.
func intersect(served []schedule.Slot) []schedule.Slot {
	open := make(map[string]bool, len(served))
	for _, s := range served {
		open[s.Time] = true
	}

	out := []schedule.Slot{}
	for _, s := range schedule.Slots() {
		if open[s.Time] {
			out = append(out, s)
		}
	}
	return out
}
