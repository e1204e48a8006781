package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrAlreadyReviewed is returned when the appointment already has a review.
var ErrAlreadyReviewed = errors.New("appointment already reviewed")

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Review, error)
	AverageRating(ctx context.Context) (float64, int64, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, appointment_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.AppointmentID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	if database.IsUniqueViolation(err, "") {
		return ErrAlreadyReviewed
	}
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("appointment_id", review.AppointmentID.String()),
		)
		return fmt.Errorf("create review for appointment %s: %w", review.AppointmentID.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, appointment_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE appointment_id = $1
	`

	var review entity.Review
	err := r.db.QueryRow(ctx, query, appointmentID).Scan(
		&review.ID,
		&review.AppointmentID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review", zap.Error(err), zap.String("appointment_id", appointmentID.String()))
		return nil, fmt.Errorf("find review for appointment %s: %w", appointmentID.String(), err)
	}

	return &review, nil
}

// AverageRating returns the mean rating and the number of reviews.
func (r *reviewRepository) AverageRating(ctx context.Context) (float64, int64, error) {
	query := `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews`

	var avg float64
	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&avg, &count); err != nil {
		r.log.Error("Failed to compute average rating", zap.Error(err))
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}

	return avg, count, nil
}
