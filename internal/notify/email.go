package notify

import (
	"context"
	"fmt"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender delivers a single message.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       *zap.Logger
}

func NewSendGridSender(cfg utils.EmailConfig, log *zap.Logger) *SendGridSender {
	if cfg.SendGridAPIKey == "" {
		return nil
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.From,
		fromName:  cfg.FromName,
		log:       log.With(zap.String("sender", "sendgrid")),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.log.Error("SendGrid send failed", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.log.Error("SendGrid returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
			zap.String("to", msg.To),
		)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	s.log.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogSender only logs; used when no API key is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("sender", "log"))}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.log.Info("Email not sent, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// NewSender returns SendGrid when configured, otherwise a LogSender.
func NewSender(cfg utils.EmailConfig, log *zap.Logger) EmailSender {
	if s := NewSendGridSender(cfg, log); s != nil {
		return s
	}
	return NewLogSender(log)
}
