package audit

import (
	"context"
	"log/slog"
)

// ChannelSink buffers events for background delivery. Append never blocks
// the request path: when the buffer is full the event is dropped with a
// warning rather than stalling a registry call.
type ChannelSink struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelSink(buffer int, logger *slog.Logger) *ChannelSink {
	return &ChannelSink{inbox: make(chan Event, buffer), logger: logger}
}

func (s *ChannelSink) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
	default:
		s.logger.Warn("audit buffer full, event dropped",
			"action", string(event.Action),
			"record_id", event.RecordID,
		)
	}
	return nil
}

// Worker drains a ChannelSink into a delivery sink. It keeps background
// processing testable without wiring broker implementations.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(source *ChannelSink, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: source.inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit delivery failed",
					"action", string(event.Action),
					"error", err.Error(),
				)
			}
		}
	}
}
