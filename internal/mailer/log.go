package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes the message to the log instead of sending it.
// Used in development so the pipeline can run without an SMTP server.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("email (log transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("text_len", len(msg.Text)),
		zap.Bool("has_html", msg.HTML != ""),
	)
	return nil
}

var _ Transport = (*LogTransport)(nil)
