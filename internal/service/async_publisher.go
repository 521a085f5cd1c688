package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	q "github.com/iliyamo/simple-chat-api/internal/queue"
)

var (
	// ErrQueueFull is returned when the buffer is full and the event was dropped.
	ErrQueueFull = errors.New("event buffer full, event dropped")
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("event publisher closed")
)

// Publisher delivers one event, blocking until it is sent or fails.
type Publisher interface {
	PublishChatReplied(ctx context.Context, event q.ChatRepliedEvent) error
}

// AsyncPublisher buffers events and hands them to a Publisher from a single
// worker goroutine.  PublishChatReplied never blocks: when the buffer is full
// the event is dropped.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	events chan q.ChatRepliedEvent
	done   chan struct{}
}

// NewAsyncPublisher starts the worker.  Each delivery gets its own timeout.
func NewAsyncPublisher(next Publisher, buffer int, timeout time.Duration, logger *slog.Logger) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	a := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		logger:  logger,
		events:  make(chan q.ChatRepliedEvent, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// PublishChatReplied enqueues event.  ctx is not used for delivery, which
// outlives the request.
func (a *AsyncPublisher) PublishChatReplied(_ context.Context, event q.ChatRepliedEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}
	select {
	case a.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the buffered ones to be
// delivered or for ctx to end.
func (a *AsyncPublisher) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for ev := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.PublishChatReplied(ctx, ev); err != nil {
			a.logger.Warn("chat event publish failed", "rule", ev.Rule, "error", err)
		}
		cancel()
	}
}
