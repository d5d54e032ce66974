package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/logger"
)

// LoggingSender is a development CodeSender that records the handoff without
// transmitting anything. The plaintext code is never written to the log.
type LoggingSender struct {
	log *zap.Logger
}

// NewLoggingSender constructs the development sender.
func NewLoggingSender(log *zap.Logger) *LoggingSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingSender{log: log}
}

// Send pretends to deliver the code and reports success.
func (s *LoggingSender) Send(_ context.Context, identifier string, channel domain.Channel, code string) (bool, error) {
	masked := logger.MaskMobile(identifier)
	if channel == domain.ChannelEmail {
		masked = logger.MaskEmail(identifier)
	}

	s.log.Info("otp handed to delivery",
		zap.String("identifier", masked),
		zap.String("channel", string(channel)),
		zap.Int("code_length", len(code)),
	)
	return true, nil
}

var _ port.CodeSender = (*LoggingSender)(nil)
