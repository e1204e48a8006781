package response

import (
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/entity"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
)

type PackageSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Price    int64  `json:"price"`
}

type QuestionResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type VideoCallResponse struct {
	RoomName  string     `json:"roomName"`
	RoomURL   string     `json:"roomUrl"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

type ClientInfo struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

type AppointmentResponse struct {
	ID               string                   `json:"id"`
	UserID           string                   `json:"userId"`
	AppointmentDate  string                   `json:"appointmentDate"`
	AppointmentTime  string                   `json:"appointmentTime"`
	TimeLabel        string                   `json:"timeLabel,omitempty"`
	ConsultationType string                   `json:"consultationType"`
	Package          PackageSnapshot          `json:"package"`
	Amount           int64                    `json:"amount"`
	ClientQuestions  []QuestionResponse       `json:"clientQuestions"`
	Status           entity.AppointmentStatus `json:"status"`
	CancelReason     *string                  `json:"cancelReason,omitempty"`
	VideoCall        *VideoCallResponse       `json:"videoCall,omitempty"`
	Client           *ClientInfo              `json:"client,omitempty"`
	ConfirmedAt      *time.Time               `json:"confirmedAt,omitempty"`
	CancelledAt      *time.Time               `json:"cancelledAt,omitempty"`
	CompletedAt      *time.Time               `json:"completedAt,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// AppointmentEnvelope is the `data` of single appointment responses.
type AppointmentEnvelope struct {
	Appointment AppointmentResponse `json:"appointment"`
	Replayed    bool                `json:"replayed,omitempty"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Pagination   PaginationMeta        `json:"pagination"`
}

func AppointmentToResponse(a *entity.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:               a.ID.String(),
		UserID:           a.UserID.String(),
		AppointmentDate:  a.AppointmentDate.Format(schedule.DateLayout),
		AppointmentTime:  a.AppointmentTime,
		ConsultationType: a.ConsultationType,
		Package: PackageSnapshot{
			ID:       a.PackageID,
			Name:     a.PackageName,
			Duration: a.PackageDuration,
			Price:    a.PackagePrice,
		},
		Amount:          a.Amount,
		ClientQuestions: make([]QuestionResponse, len(a.ClientQuestions)),
		Status:          a.Status,
		CancelReason:    a.CancelReason,
		ConfirmedAt:     a.ConfirmedAt,
		CancelledAt:     a.CancelledAt,
		CompletedAt:     a.CompletedAt,
		CreatedAt:       a.CreatedAt,
	}

	if slot, ok := schedule.FindSlot(a.AppointmentTime); ok {
		resp.TimeLabel = slot.Label
	}
	for i, q := range a.ClientQuestions {
		resp.ClientQuestions[i] = QuestionResponse{Question: q.Question, Answer: q.Answer}
	}
	if a.RoomName != nil && a.RoomURL != nil {
		resp.VideoCall = &VideoCallResponse{
			RoomName:  *a.RoomName,
			RoomURL:   *a.RoomURL,
			StartedAt: a.CallStartedAt,
			EndedAt:   a.CallEndedAt,
		}
	}

	return resp
}

func AppointmentWithClientToResponse(a *entity.AppointmentWithClient) AppointmentResponse {
	resp := AppointmentToResponse(&a.Appointment)
	resp.Client = &ClientInfo{
		Name:  a.ClientName,
		Email: a.ClientEmail,
		Phone: a.ClientPhone,
	}
	return resp
}

type AvailableSlotsResponse struct {
	Date           string          `json:"date"`
	AvailableSlots []schedule.Slot `json:"availableSlots"`
}
