package mailer

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

var ErrUnknownKind = errors.New("unknown email kind")

// Message is the queued unit of work. It carries the token, never a rendered
// body, so links are built by the worker from its own frontend URL.
type Message struct {
	Kind     string    `json:"kind"`
	To       string    `json:"to"`
	Token    string    `json:"token"`
	QueuedAt time.Time `json:"queued_at"`
}

type Email struct {
	To      string
	Subject string
	Body    string
}

type Renderer struct {
	frontendURL string
}

func NewRenderer(frontendURL string) *Renderer {
	return &Renderer{frontendURL: frontendURL}
}

func (r *Renderer) Render(msg Message) (*Email, error) {
	switch msg.Kind {
	case KindVerification:
		link := r.link("/verify-email", msg.Token)
		return &Email{
			To:      msg.To,
			Subject: "Confirm your email",
			Body: fmt.Sprintf("Welcome!\r\n\r\nConfirm your email address by opening the link below:\r\n\r\n%s\r\n\r\n"+
				"If you did not create an account you can ignore this message.\r\n", link),
		}, nil
	case KindPasswordReset:
		link := r.link("/reset-password", msg.Token)
		return &Email{
			To:      msg.To,
			Subject: "Reset your password",
			Body: fmt.Sprintf("We received a request to reset your password.\r\n\r\nOpen the link below to choose a new one. "+
				"It expires in one hour and works once:\r\n\r\n%s\r\n\r\n"+
				"If you did not ask for this you can ignore this message.\r\n", link),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
}

func (r *Renderer) link(path, token string) string {
	return r.frontendURL + path + "?token=" + url.QueryEscape(token)
}
