package mail

import "gopkg.in/gomail.v2"

type WelcomeEmailData struct {
	CompanyName  string
	Plan         string
	DashboardURL string
}

// Dialer is the part of *gomail.Dialer the sender uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From         string
	DashboardURL string
	dialer       Dialer
}
