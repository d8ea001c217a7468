package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gboigwe/StratoLedger/pkg/requestcontext"
)

// Sink receives audit events. Implementations must be safe for concurrent
// use; they are shared between the publisher and background workers.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures registry audit events. It is append-only and writes
// through a Sink so tests can swap in a memory sink and deployments can fan
// out to Kafka.
//
// Audit emission happens after the state change committed; a sink failure is
// logged, never surfaced, so the registry stays usable when the audit path
// is down.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", string(event.Action),
			"record_id", event.RecordID,
			"error", err.Error(),
		)
	}
}
