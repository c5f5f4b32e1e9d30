// Package sms holds the SMS channel. Only a mock sender exists: real SMS
// protocol integration is out of scope, so "sending" is a structured log
// line and never fails.
package sms

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers an SMS-class notification to a user.
type Sender interface {
	Send(ctx context.Context, userID int64, title string) error
}

// MockSender logs the send and always succeeds.
type MockSender struct {
	logger *zap.Logger
}

func NewMockSender(logger *zap.Logger) *MockSender {
	return &MockSender{logger: logger}
}

func (s *MockSender) Send(_ context.Context, userID int64, title string) error {
	s.logger.Info("mock sms sent",
		zap.Int64("user_id", userID),
		zap.String("title", title),
	)
	return nil
}

var _ Sender = (*MockSender)(nil)
