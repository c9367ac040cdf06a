package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/logging"
	"github.com/JakeFAU/marketing-site/internal/site"
)

// LogSink writes lead events to the log. Used when no other sink is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Name implements site.EventSink.
func (s *LogSink) Name() string { return "log" }

// Deliver logs the event with redacted addresses.
func (s *LogSink) Deliver(_ context.Context, event site.Event) error {
	fields := []zap.Field{zap.String("kind", string(event.Kind))}
	switch {
	case event.Contact != nil:
		fields = append(fields,
			zap.Int64("contact_id", event.Contact.ID),
			logging.Email("email", event.Contact.Email),
			zap.String("interest", event.Contact.Interest),
		)
	case event.Subscriber != nil:
		fields = append(fields,
			zap.Int64("subscriber_id", event.Subscriber.ID),
			logging.Email("email", event.Subscriber.Email),
		)
	}
	s.logger.Info("lead event", fields...)
	return nil
}
