package notify

import (
	"fmt"
	"strings"
)

// OTPEmail renders the one-time code message.
func OTPEmail(to, name, subject, code string, expiryMinutes int) EmailMessage {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour code is %s. It expires in %d minutes.\n\nIf you did not request it, ignore this email.",
		name, code, expiryMinutes,
	)
	return EmailMessage{
		To:      to,
		ToName:  name,
		Subject: subject,
		Body:    body,
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your code is <strong>%s</strong>. It expires in %d minutes.</p><p>If you did not request it, ignore this email.</p>",
			name, code, expiryMinutes,
		),
	}
}

// Confirmation holds what the booking confirmation email shows.
type Confirmation struct {
	To          string
	Name        string
	PackageName string
	Date        string
	TimeLabel   string
	Amount      int64
	PaymentID   string
}

// ConfirmationEmail renders the paid booking confirmation.
func ConfirmationEmail(c Confirmation) EmailMessage {
	lines := []string{
		fmt.Sprintf("Hello %s,", c.Name),
		"",
		"Your consultation is confirmed.",
		fmt.Sprintf("Package: %s", c.PackageName),
		fmt.Sprintf("When: %s, %s", c.Date, c.TimeLabel),
		fmt.Sprintf("Amount paid: Rs. %d", c.Amount),
		fmt.Sprintf("Payment reference: %s", c.PaymentID),
		"",
		"Join the video call from your dashboard a few minutes before the start.",
	}
	return EmailMessage{
		To:      c.To,
		ToName:  c.Name,
		Subject: "Your consultation is confirmed",
		Body:    strings.Join(lines, "\n"),
	}
}
