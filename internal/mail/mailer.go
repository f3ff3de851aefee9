// Package mail delivers transactional email over SMTP with embedded
// HTML templates.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"

	"nextlevel/api/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

type Mailer struct {
	client    *gomail.Client
	cfg       config.EmailConfig
	templates *template.Template
}

func NewMailer(cfg config.EmailConfig) (*Mailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Mailer{
		client:    client,
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

func (m *Mailer) send(ctx context.Context, to, subject, templateName string, data any) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromEmail); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendOTP emails a one-time code with its validity window.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, expiry time.Duration) error {
	return m.send(ctx, to, "Your verification code", "otp.html", map[string]any{
		"Code":          code,
		"ExpiryMinutes": int(expiry.Minutes()),
		"Year":          time.Now().Year(),
	})
}

// SendWelcome greets a freshly registered user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome aboard", "welcome.html", map[string]any{
		"Name": name,
		"Year": time.Now().Year(),
	})
}
