package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/report"
)

// Mailer delivers a rendered report
type Mailer interface {
	Send(ctx context.Context, doc *report.Document) error
}

// New returns an SMTP mailer when credentials are configured, otherwise a mailer that only logs
func New(cfg *config.Config) Mailer {
	if !cfg.MailConfigured() {
		return NewLogMailer()
	}
	return NewSMTPMailer(SMTPConfig{
		Server:   cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		From:     cfg.EmailFrom,
		Password: cfg.EmailPassword,
		To:       cfg.EmailTo,
	})
}

// SMTPConfig holds the SMTP server and account settings
type SMTPConfig struct {
	Server   string
	Port     int
	From     string
	Password string
	To       []string
}

// SMTPMailer sends reports over SMTP with STARTTLS and PLAIN auth
type SMTPMailer struct {
	config SMTPConfig
	send   func(e *email.Email, addr string, a smtp.Auth) error
	log    *logger.Logger
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		send:   (*email.Email).Send,
		log:    logger.ForMailer(),
	}
}

// Send delivers doc as an HTML message with a plain-text alternative
func (m *SMTPMailer) Send(ctx context.Context, doc *report.Document) error {
	if doc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewDelivery("smtp", "send cancelled", err)
	}

	mail := email.NewEmail()
	mail.From = m.config.From
	mail.To = m.config.To
	mail.Subject = doc.Subject
	mail.HTML = []byte(doc.HTML)
	mail.Text = []byte(doc.Text)

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(mail, addr, smtp.PlainAuth("", m.config.From, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		return apperrors.NewDelivery("smtp", fmt.Sprintf("send to %s", addr), err)
	}

	m.log.Info().
		Str("subject", doc.Subject).
		Int("recipients", len(m.config.To)).
		Int("new_items", doc.NewCount).
		Msg("Email sent")
	return nil
}

// LogMailer logs the report instead of sending it; used when SMTP is not configured
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.ForMailer()}
}

// Send logs doc's subject and never fails
func (m *LogMailer) Send(ctx context.Context, doc *report.Document) error {
	if doc == nil {
		return nil
	}
	m.log.Warn().
		Str("subject", doc.Subject).
		Int("new_items", doc.NewCount).
		Msg("Email config missing, report not emailed")
	m.log.Debug().Msg(doc.Text)
	return nil
}
