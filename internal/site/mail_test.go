package site

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/config"
)

func TestSMTPMailerNotConfigured(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587})
	err := m.SendContact("Ada", "ada@example.com", "hi")
	assert.ErrorIs(t, err, ErrSMTPNotConfigured)
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "me@example.com",
		Password: "pw",
	})

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	require.NoError(t, m.SendContact("Ada\r\nBcc: evil@example.com", "ada@example.com", "Hello\nthere"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "me@example.com", gotFrom)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Portfolio Contact: Ada  Bcc: evil@example.com\r\n")
	assert.Contains(t, gotMsg, "Reply-To: ada@example.com\r\n")
	assert.NotContains(t, gotMsg, "\r\nBcc:")
	assert.Contains(t, gotMsg, "Hello\nthere")
}

func TestSMTPMailerError(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{User: "u", Password: "p", To: "inbox@example.com"})
	boom := errors.New("boom")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.SendContact("Ada", "ada@example.com", "hi")
	assert.ErrorIs(t, err, boom)
}
