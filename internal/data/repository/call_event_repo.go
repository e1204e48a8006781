package repository

import (
	"context"
	"fmt"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CallEventRepository interface {
	Create(ctx context.Context, event *entity.CallEvent) error
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*entity.CallEvent, error)
}

type callEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCallEventRepository(db database.PgxIface, log *zap.Logger) CallEventRepository {
	return &callEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "call_event")),
	}
}

func (r *callEventRepository) Create(ctx context.Context, event *entity.CallEvent) error {
	query := `
		INSERT INTO call_events (id, appointment_id, user_id, event, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.AppointmentID,
		event.UserID,
		event.Event,
		event.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record call event",
			zap.Error(err),
			zap.String("appointment_id", event.AppointmentID.String()),
			zap.String("event", string(event.Event)),
		)
		return fmt.Errorf("record call event: %w", err)
	}

	return nil
}

func (r *callEventRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*entity.CallEvent, error) {
	query := `
		SELECT id, appointment_id, user_id, event, created_at
		FROM call_events
		WHERE appointment_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, appointmentID)
	if err != nil {
		r.log.Error("Failed to list call events", zap.Error(err))
		return nil, fmt.Errorf("list call events: %w", err)
	}
	defer rows.Close()

	var events []*entity.CallEvent
	for rows.Next() {
		var e entity.CallEvent
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.UserID, &e.Event, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan call event: %w", err)
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}
