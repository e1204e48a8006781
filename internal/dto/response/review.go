package response

import (
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
)

type ReviewResponse struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	UserID        string    `json:"userId"`
	Rating        int       `json:"rating"`
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func ReviewToResponse(review *entity.Review) ReviewResponse {
	return ReviewResponse{
		ID:            review.ID.String(),
		AppointmentID: review.AppointmentID.String(),
		UserID:        review.UserID.String(),
		Rating:        review.Rating,
		Comment:       review.Comment,
		CreatedAt:     review.CreatedAt,
	}
}
