// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is a message with a plain-text and an HTML body.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// LogSender writes messages to the log instead of sending them.
// It is used in development and whenever no SMTP server is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	s.Log.Info("mail not sent (no SMTP configured)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.TextBody),
	)
	return nil
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

// SMTPSender delivers mail through an SMTP relay using PLAIN auth when a
// username is set.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Addr == "" {
		return nil, errors.New("mailer: SMTP address is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: from address is required")
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMIME(s.cfg.From, e)
	if err != nil {
		return err
	}
	var a smtp.Auth
	if s.cfg.Username != "" {
		host := s.cfg.Addr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}
	if err := s.send(s.cfg.Addr, a, s.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	return nil
}

// buildMIME renders e as a multipart/alternative message.
func buildMIME(from string, e Email) ([]byte, error) {
	var body strings.Builder
	mw := multipart.NewWriter(&body)
	if err := mw.SetBoundary("workhub-" + uuid.NewString()); err != nil {
		return nil, err
	}
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", e.TextBody},
		{"text/html; charset=UTF-8", e.HTMLBody},
	} {
		if part.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
	msg.WriteString(body.String())
	return []byte(msg.String()), nil
}
