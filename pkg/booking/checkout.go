package booking

import (
	"context"
	"strings"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/client"
)

// Prefill is the contact data shown in the checkout form.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// PrefillFrom fills the checkout contact from the signed-in user.
func PrefillFrom(u *client.User) Prefill {
	if u == nil {
		return Prefill{}
	}
	p := Prefill{Name: strings.TrimSpace(u.FullName()), Email: u.Email}
	if u.Phone != nil {
		p.Contact = *u.Phone
	}
	return p
}

type CheckoutRequest struct {
	KeyID       string
	OrderID     string
	Amount      int64
	Currency    string
	Description string
	Prefill     Prefill
	Theme       string
}

// CheckoutOutcome is either a payment proof or a dismissal.
type CheckoutOutcome struct {
	Proof     *client.PaymentProof
	Dismissed bool
}

// Checkout is the hosted payment widget. Open blocks until the user pays or
// closes it. An error means the widget never loaded.
type Checkout interface {
	Open(ctx context.Context, req CheckoutRequest) (CheckoutOutcome, error)
}
