package booking

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_HorizonBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		inRange bool
	}{
		{"yesterday", "2025-03-31", false},
		{"day 0", "2025-04-01", true},
		{"day 30", "2025-05-01", true},
		{"day 31", "2025-05-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			r := NewResolver(backend, testCalendar())

			_, err := r.AvailableSlots(context.Background(), tt.date)
			slotCalls, _, _, _ := backend.calls()

			if tt.inRange {
				assert.NoError(t, err)
				assert.Equal(t, 1, slotCalls)
				return
			}
			assert.ErrorIs(t, err, ErrDateOutOfRange)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Zero(t, slotCalls, "server must not be asked")
		})
	}
}

func TestResolver_SundayHasNoSlots(t *testing.T) {
	backend := newFakeBackend() // would report every slot open
	r := NewResolver(backend, testCalendar())

	got, err := r.AvailableSlots(context.Background(), "2025-04-06")
	require.NoError(t, err)

	assert.Empty(t, got.Slots)
	assert.False(t, got.ServiceUnavailable)
	slotCalls, _, _, _ := backend.calls()
	assert.Zero(t, slotCalls)
}

func TestResolver_IntersectsWithDailySlots(t *testing.T) {
	backend := newFakeBackend()
	backend.slots = []schedule.Slot{{Time: "18:00"}, {Time: "21:00"}, {Time: "17:00"}}
	r := NewResolver(backend, testCalendar())

	got, err := r.AvailableSlots(context.Background(), "2025-04-10")
	require.NoError(t, err)

	require.Len(t, got.Slots, 2)
	assert.Equal(t, "17:00", got.Slots[0].Time)
	assert.Equal(t, "18:00", got.Slots[1].Time)
	assert.Equal(t, "6:00 PM - 6:30 PM", got.Slots[1].Label)
}

func TestResolver_NothingOpenIsNotAnOutage(t *testing.T) {
	backend := newFakeBackend()
	backend.slots = nil
	r := NewResolver(backend, testCalendar())

	got, err := r.AvailableSlots(context.Background(), "2025-04-10")
	require.NoError(t, err)
	assert.Empty(t, got.Slots)
	assert.False(t, got.ServiceUnavailable)
}

func TestResolver_ServiceUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"network", errors.New("dial tcp: connection refused")},
		{"server error", &client.APIError{Status: http.StatusInternalServerError, Code: "INTERNAL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.slotErr = tt.err
			r := NewResolver(backend, testCalendar())

			got, err := r.AvailableSlots(context.Background(), "2025-04-10")

			assert.True(t, got.ServiceUnavailable)
			assert.Empty(t, got.Slots)
			assert.ErrorIs(t, err, ErrServiceUnavailable)
			assert.Equal(t, KindTransient, KindOf(err))
		})
	}
}

func TestResolver_InvalidDate(t *testing.T) {
	r := NewResolver(newFakeBackend(), testCalendar())

	_, err := r.AvailableSlots(context.Background(), "10/04/2025")
	assert.Equal(t, KindValidation, KindOf(err))
}
