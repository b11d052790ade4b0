package notification

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// Message is a rendered mail ready for a transport.
type Message struct {
	From     mail.Address
	To       []mail.Address
	Subject  string
	Text     string
	HTML     string
	Template string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of a mail server.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message envelope and its text body.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = addr.String()
	}
	m.logger.Info("mail sent",
		zap.String("from", msg.From.String()),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
		zap.String("text", msg.Text),
	)
	return nil
}
