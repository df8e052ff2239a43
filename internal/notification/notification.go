package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linkamarket/linka-api/internal/notification/templates"
)

// --- Constants for Type Safety ---

type Channel string
type Priority string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Content holds the specific message data for each channel.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	SMSText       string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	Recipient string
	Channels  []Channel
	Priority  Priority
	Content   Content
}

// --- Internal Sender Interfaces ---

type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
type smsSender interface {
	Send(ctx context.Context, to, message string) error
}

// Service is the main interface for the notification system.
type Service interface {
	Send(ctx context.Context, n Notification) error
}

type service struct {
	log         *slog.Logger
	emailSender EmailSender
	smsSender   smsSender
	engine      *templates.Engine
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, emailSender EmailSender, smsSender smsSender, engine *templates.Engine) Service {
	return &service{
		log:         log,
		emailSender: emailSender,
		smsSender:   smsSender,
		engine:      engine,
	}
}

// Send acts as a dispatcher, routing the notification to the correct channel sender.
func (s *service) Send(ctx context.Context, n Notification) error {
	for _, channel := range n.Channels {
		// Launch each channel send in a separate goroutine for speed.
		go func(ch Channel) {
			var err error
			switch ch {
			case ChannelEmail:
				s.log.Info("dispatching email notification", "recipient", n.Recipient)
				err = s.emailSender.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody)
			case ChannelSMS:
				s.log.Info("dispatching sms notification", "recipient", n.Recipient)
				err = s.smsSender.Send(ctx, n.Recipient, n.Content.SMSText)
			default:
				s.log.Warn("unsupported notification channel", "channel", ch)
			}

			if err != nil {
				// We can't return an error here, so we must log it for monitoring.
				s.log.Error("failed to send notification", "channel", ch, "recipient", n.Recipient, "error", err)
			}
		}(channel)
	}
	return nil // Return immediately
}

// SendTemplate renders a template scenario and dispatches it on the given channels.
func SendTemplate[T any](ctx context.Context, svc Service, h templates.Handle[T], recipient string, channels []Channel, priority Priority, data T) error {
	s, ok := svc.(*service)
	if !ok || s.engine == nil {
		return fmt.Errorf("notification service has no template engine")
	}
	rendered, err := templates.Render(ctx, s.engine, h, data)
	if err != nil {
		return fmt.Errorf("render template %q: %w", h.ID(), err)
	}
	return svc.Send(ctx, Notification{
		Recipient: recipient,
		Channels:  channels,
		Priority:  priority,
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
			SMSText:       rendered.SMSText,
		},
	})
}
