package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Logger defines the logging interface used by the Fanout.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher delivers one sub-batch of events to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, events []json.RawMessage) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, channel string, events []json.RawMessage) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, channel string, events []json.RawMessage) error {
	return f(ctx, channel, events)
}

// Multi delivers every sub-batch to each publisher in order. All publishers
// are attempted; their errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, channel string, events []json.RawMessage) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, channel, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fanout flushes unit-of-work batches to a Publisher.
type Fanout struct {
	pub     Publisher
	maxSize int
	logger  Logger
}

// NewFanout creates a Fanout. A non-positive maxSize selects DefaultMaxBatchSize.
func NewFanout(pub Publisher, maxSize int) *Fanout {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	return &Fanout{pub: pub, maxSize: maxSize, logger: noopLogger{}}
}

// SetLogger sets the logger for the fanout.
func (f *Fanout) SetLogger(logger Logger) {
	f.logger = logger
}

// Flush drains b and delivers its events to building's channel.
//
// Every event must belong to building; otherwise ErrMixedBuildings is
// returned and nothing is delivered. Sub-batches are published
// synchronously in order and the first delivery error is returned without
// retry.
func (f *Fanout) Flush(ctx context.Context, building string, b *Batch) error {
	entries := b.Drain()
	if len(entries) == 0 {
		return nil
	}

	events := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if e.Building != building {
			f.logger.Error("push batch spans buildings",
				"building", building, "offending_building", e.Building, "events", len(entries))
			return fmt.Errorf("%w: %q and %q", ErrMixedBuildings, building, e.Building)
		}
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encoding push event: %w", err)
		}
		events = append(events, raw)
	}

	channel := ChannelName(building)
	for _, sub := range SplitBatch(events, f.maxSize) {
		if size := SerializedSize(sub); size > f.maxSize {
			f.logger.Warn("push event exceeds batch size", "channel", channel, "size", size, "max", f.maxSize)
		}
		if err := f.pub.Publish(ctx, channel, sub); err != nil {
			return fmt.Errorf("publishing to %s: %w", channel, err)
		}
	}

	f.logger.Debug("push batch flushed", "channel", channel, "events", len(events))
	return nil
}

// Run executes fn as one unit of work for building. fn receives a context
// carrying a fresh batch; the batch is flushed if fn succeeds and discarded
// otherwise.
func (f *Fanout) Run(ctx context.Context, building string, fn func(ctx context.Context) error) error {
	b := NewBatch()
	if err := fn(NewContext(ctx, b)); err != nil {
		if n := len(b.Drain()); n > 0 {
			f.logger.Debug("push batch discarded", "building", building, "events", n)
		}
		return err
	}
	return f.Flush(ctx, building, b)
}
