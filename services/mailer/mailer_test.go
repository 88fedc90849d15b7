package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingwatch/config"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/report"
)

var doc = &report.Document{Subject: "2 new listings - Mar 02", HTML: "<h1>hi</h1>", Text: "hi", NewCount: 2}

func testMailer() *SMTPMailer {
	return NewSMTPMailer(SMTPConfig{
		Server:   "smtp.example.com",
		Port:     587,
		From:     "bot@example.com",
		Password: "secret",
		To:       []string{"a@example.com", "b@example.com"},
	})
}

func TestSMTPMailerSend(t *testing.T) {
	m := testMailer()

	var sent *email.Email
	var sentAddr string
	m.send = func(e *email.Email, addr string, a smtp.Auth) error {
		sent, sentAddr = e, addr
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), doc))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", sentAddr)
	assert.Equal(t, "bot@example.com", sent.From)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent.To)
	assert.Equal(t, doc.Subject, sent.Subject)
	assert.Equal(t, []byte(doc.HTML), sent.HTML)
	assert.Equal(t, []byte(doc.Text), sent.Text)
}

func TestSMTPMailerFallsBackWithoutAuth(t *testing.T) {
	m := testMailer()

	var auths []smtp.Auth
	m.send = func(e *email.Email, addr string, a smtp.Auth) error {
		auths = append(auths, a)
		if a != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	require.NoError(t, m.Send(context.Background(), doc))
	require.Len(t, auths, 2)
	assert.Nil(t, auths[1])
}

func TestSMTPMailerFailure(t *testing.T) {
	m := testMailer()
	m.send = func(*email.Email, string, smtp.Auth) error {
		return errors.New("535 authentication failed")
	}

	err := m.Send(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDelivery))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, apperrors.IsType(m.Send(ctx, doc), apperrors.ErrorTypeDelivery))
}

func TestSendNilDocument(t *testing.T) {
	m := testMailer()
	m.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("nothing should be sent")
		return nil
	}
	assert.NoError(t, m.Send(context.Background(), nil))
	assert.NoError(t, NewLogMailer().Send(context.Background(), nil))
}

func TestNew(t *testing.T) {
	cfg := config.LoadConfig()
	assert.IsType(t, &LogMailer{}, New(cfg))
	assert.NoError(t, New(cfg).Send(context.Background(), doc))

	cfg.EmailFrom = "bot@example.com"
	cfg.EmailPassword = "secret"
	cfg.EmailTo = []string{"a@example.com"}
	assert.IsType(t, &SMTPMailer{}, New(cfg))
}
