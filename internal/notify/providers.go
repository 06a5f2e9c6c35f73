package notify

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

func (p *ResendProvider) Send(ctx context.Context, e Email) (string, error) {
	sent, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

type SMTPProvider struct {
	host     string
	port     string
	user     string
	password string
}

func NewSMTPProvider(host, port, user, password string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, user: user, password: password}
}

func (p *SMTPProvider) Send(ctx context.Context, e Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	message := buildMessage(e)

	var auth smtp.Auth
	if p.user != "" {
		auth = smtp.PlainAuth("", p.user, p.password, p.host)
	}
	if err := smtp.SendMail(p.host+":"+p.port, auth, e.From, e.To, message); err != nil {
		return "", fmt.Errorf("smtp: %w", err)
	}
	return "", nil
}

// buildMessage lays out the SMTP headers and body. Header values are stripped
// of line breaks and the subject is RFC 2047 encoded, since names and job
// titles in it come from user input.
func buildMessage(e Email) []byte {
	to := make([]string, len(e.To))
	for i, addr := range e.To {
		to[i] = headerValue(addr)
	}
	return []byte("From: " + headerValue(e.From) + "\r\n" +
		"To: " + strings.Join(to, ", ") + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("UTF-8", headerValue(e.Subject)) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		e.HTML + "\r\n")
}

func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == 0 {
			return ' '
		}
		return r
	}, v)
}

// LogProvider stands in when no email transport is configured.
type LogProvider struct{}

func (LogProvider) Send(_ context.Context, e Email) (string, error) {
	log.Printf("[INFO] email not configured, skipping %q to %s", e.Subject, strings.Join(e.To, ", "))
	return "", nil
}

// ProviderFor picks Resend when an API key is set, then SMTP, then logging only.
func ProviderFor(resendKey, smtpHost, smtpPort, smtpUser, smtpPassword string) Provider {
	switch {
	case resendKey != "":
		return NewResendProvider(resendKey)
	case smtpHost != "":
		return NewSMTPProvider(smtpHost, smtpPort, smtpUser, smtpPassword)
	default:
		return LogProvider{}
	}
}
