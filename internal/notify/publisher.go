package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the notification journal so observers can catch up.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Sink pushes notifications to an external system (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ErrBufferFull is returned when async emission cannot keep up.
var ErrBufferFull = errors.New("notification buffer full")

// Publisher journals events and fans them out to sinks. Journal writes are
// authoritative; sink failures are logged and dropped, never surfaced to the
// mutation that triggered the event.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger

	buffer chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSink attaches an external sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sinks = append(p.sinks, sink) }
}

// WithAsyncBuffer makes Emit non-blocking behind a channel of the given
// size. Events that do not fit are dropped with a log line.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.buffer = make(chan Event, size) }
}

// NewPublisher builds a publisher over the given journal store.
func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit stamps and dispatches an event. In async mode a full buffer returns
// ErrBufferFull rather than blocking the mutation path.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.buffer == nil {
		return p.dispatch(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("dropping notification, buffer full", "kind", event.Kind)
		return ErrBufferFull
	}
}

// List returns the journaled events in emission order.
func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}

// Close drains the async buffer and closes all sinks.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
		for _, sink := range p.sinks {
			if err := sink.Close(); err != nil {
				p.logger.Warn("closing notification sink", "error", err)
			}
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.dispatch(context.Background(), event); err != nil {
			p.logger.Error("dispatching notification", "kind", event.Kind, "error", err)
		}
	}
}

func (p *Publisher) dispatch(ctx context.Context, event Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.Warn("notification sink publish failed", "kind", event.Kind, "error", err)
		}
	}
	return nil
}
