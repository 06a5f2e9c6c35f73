// Package notify renders and delivers the transactional emails sent by the
// hiring flows. Flows hand a Message to the Worker and return; delivery happens
// in the background and a failed send is logged and recorded, never retried.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Message is one email to send: a template, its recipients and the params
// struct that belongs to the template (e.g. *StatusUpdateParams).
type Message struct {
	Template Key
	To       []string
	Data     any
}

// Email is a rendered message ready for a provider.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

type Provider interface {
	Send(ctx context.Context, e Email) (id string, err error)
}

// Notifier is what the hiring flows depend on. Enqueue must not block.
type Notifier interface {
	Enqueue(m Message)
}

type Dispatcher struct {
	provider Provider
	from     string
	appURL   string
}

func NewDispatcher(provider Provider, from, appURL string) *Dispatcher {
	return &Dispatcher{provider: provider, from: from, appURL: strings.TrimRight(appURL, "/")}
}

// Send renders m and hands it to the provider. It returns the provider's message id.
func (d *Dispatcher) Send(ctx context.Context, m Message) (string, error) {
	if len(m.To) == 0 {
		return "", fmt.Errorf("notify: %s has no recipients", m.Template)
	}
	subject, html, err := Render(d.appURL, m)
	if err != nil {
		return "", err
	}
	return d.provider.Send(ctx, Email{
		From:    d.from,
		To:      m.To,
		Subject: subject,
		HTML:    html,
	})
}

// Subject renders only the subject line, used when recording failures.
func Subject(m Message) string {
	t, ok := templates[m.Template]
	if !ok || !paramsMatch(m.Template, m.Data) {
		return string(m.Template)
	}
	return t.subject(m.Data)
}
