package mail

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	err  error
	sent []*gomail.Message
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSender_SendWelcome(t *testing.T) {
	d := &captureDialer{}
	s := NewEmailSenderWithDialer(d, "no-reply@leadflow.app")
	s.DashboardURL = "https://app.leadflow.test/"

	require.NoError(t, s.SendWelcome("owner@acme.test", "Acme <Sales>"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"owner@acme.test"}, m.GetHeader("To"))
	assert.Equal(t, []string{"no-reply@leadflow.app"}, m.GetHeader("From"))

	var raw bytes.Buffer
	_, err := m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "https://app.leadflow.test/")
}

func TestEmailSender_SMTPError(t *testing.T) {
	s := NewEmailSenderWithDialer(&captureDialer{err: errors.New("conn refused")}, "x@y.z")
	err := s.SendWelcome("owner@acme.test", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send")
}
