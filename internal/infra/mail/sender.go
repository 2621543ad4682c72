package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadflow/internal/entity"
)

//go:embed templates/welcome.html
var templates embed.FS

var welcomeTmpl = template.Must(template.ParseFS(templates, "templates/welcome.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		From:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

// NewEmailSenderWithDialer is used when the SMTP transport is supplied by
// the caller.
func NewEmailSenderWithDialer(d Dialer, from string) *EmailSender {
	return &EmailSender{From: from, dialer: d}
}

func (s *EmailSender) SendWelcome(to, companyName string) error {
	m, err := s.welcomeMessage(to, companyName)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *EmailSender) welcomeMessage(to, companyName string) (*gomail.Message, error) {
	dashboard := s.DashboardURL
	if dashboard == "" {
		dashboard = "/"
	}

	var body bytes.Buffer
	err := welcomeTmpl.Execute(&body, WelcomeEmailData{
		CompanyName:  companyName,
		Plan:         entity.PlanPro,
		DashboardURL: dashboard,
	})
	if err != nil {
		return nil, fmt.Errorf("render welcome template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Welcome to Leadflow, %s! 🚀", companyName))
	m.SetBody("text/html", body.String())
	return m, nil
}
