// Package mail sends the contact form notification and its auto-reply over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

var (
	ErrMissingFields = errors.New("All fields are required")
	ErrInvalidEmail  = errors.New("Invalid email address")
	ErrNotConfigured = errors.New("Mail is not configured")
)

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Sender delivers prepared messages.
type Sender interface {
	Send(ctx context.Context, msgs ...*gomail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPSender dials the relay for every batch.
type SMTPSender struct {
	client *gomail.Client
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.User),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msgs ...*gomail.Msg) error {
	return s.client.DialAndSendWithContext(ctx, msgs...)
}

// Mailer builds the contact mails. The admin address is also the sender.
type Mailer struct {
	sender Sender
	admin  string
}

func NewMailer(sender Sender, admin string) *Mailer {
	return &Mailer{sender: sender, admin: admin}
}

// SendContact mails the admin and sends an auto-reply to the visitor.
func (m *Mailer) SendContact(ctx context.Context, msg ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return ErrMissingFields
	}
	if m.sender == nil || m.admin == "" {
		return ErrNotConfigured
	}

	adminHTML, replyHTML := contactBodies(msg)

	toAdmin := gomail.NewMsg()
	if err := toAdmin.From(m.admin); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := toAdmin.To(m.admin); err != nil {
		return fmt.Errorf("invalid admin address: %w", err)
	}
	if err := toAdmin.ReplyTo(msg.Email); err != nil {
		return ErrInvalidEmail
	}
	toAdmin.Subject("New Contact Message from " + msg.Name)
	toAdmin.SetBodyString(gomail.TypeTextHTML, adminHTML)

	reply := gomail.NewMsg()
	if err := reply.From(m.admin); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := reply.To(msg.Email); err != nil {
		return ErrInvalidEmail
	}
	reply.Subject("We received your message - AI Hub")
	reply.SetBodyString(gomail.TypeTextHTML, replyHTML)

	log.Info().Str("from", msg.Email).Msg("Sending contact mails")

	if err := m.sender.Send(ctx, toAdmin, reply); err != nil {
		log.Error().Err(err).Str("from", msg.Email).Msg("Contact mail failed")
		return fmt.Errorf("failed to send contact mail: %w", err)
	}
	return nil
}

func contactBodies(msg ContactMessage) (admin, reply string) {
	name := html.EscapeString(msg.Name)
	email := html.EscapeString(msg.Email)
	body := strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>")

	admin = "<h2>New Contact Message</h2>\n" +
		"<p><strong>Name:</strong> " + name + "</p>\n" +
		"<p><strong>Email:</strong> " + email + "</p>\n" +
		"<p><strong>Message:</strong> " + body + "</p>\n"

	reply = "<h2>Hello " + name + ",</h2>\n" +
		"<p>Thank you for contacting <b>AI Hub</b>. Your message has been received.</p>\n" +
		"<p>We will get back to you shortly.</p>\n<br />\n" +
		"<p><strong>Your Message:</strong></p>\n" +
		"<p>" + body + "</p>\n<br />\n" +
		"<p>Best regards,<br>AI Hub Team</p>\n"
	return admin, reply
}
