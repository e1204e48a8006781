package request

// PackageSnapshot is the package as the client saw it when booking.
type PackageSnapshot struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Duration int    `json:"duration" validate:"required,gt=0"`
	Price    int64  `json:"price" validate:"required,gt=0"`
}

type ClientQuestion struct {
	Question string `json:"question" validate:"notblank,max=500"`
	Answer   string `json:"answer" validate:"notblank,max=2000"`
}

type CreateAppointmentRequest struct {
	AppointmentDate  string           `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime  string           `json:"appointmentTime" validate:"required,datetime=15:04"`
	ConsultationType string           `json:"consultationType" validate:"required"`
	Package          PackageSnapshot  `json:"package"`
	ClientQuestions  []ClientQuestion `json:"clientQuestions" validate:"required,min=1,max=5,dive"`
}

type CancelAppointmentRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type AppointmentListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
