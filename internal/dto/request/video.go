package request

type CallStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=started ended"`
}
