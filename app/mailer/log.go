package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogDispatcher stands in for the queue when no broker is configured. Links
// are rendered and written to the log at debug level.
type LogDispatcher struct {
	renderer *Renderer
}

func NewLogDispatcher(renderer *Renderer) *LogDispatcher {
	return &LogDispatcher{renderer: renderer}
}

func (d *LogDispatcher) SendVerificationEmail(_ context.Context, email, token string) error {
	return d.log(Message{Kind: KindVerification, To: email, Token: token})
}

func (d *LogDispatcher) SendPasswordResetEmail(_ context.Context, email, token string) error {
	return d.log(Message{Kind: KindPasswordReset, To: email, Token: token})
}

func (d *LogDispatcher) log(msg Message) error {
	mail, err := d.renderer.Render(msg)
	if err != nil {
		return err
	}
	entry := logrus.WithFields(logrus.Fields{
		"kind": msg.Kind,
		"to":   mail.To,
	})
	entry.Info("Email dispatch skipped: no broker configured")
	entry.WithField("body", mail.Body).Debug("Email content")
	return nil
}
