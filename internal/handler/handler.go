// Package handler exposes the HTTP handlers of the chat API.
package handler

import (
	"context"
	"log/slog"

	"github.com/iliyamo/simple-chat-api/internal/logging"
	"github.com/iliyamo/simple-chat-api/internal/queue"
	"github.com/iliyamo/simple-chat-api/internal/telemetry"
)

// EventPublisher receives an event after every successful chat reply.
// Implementations must return without waiting on the broker.
type EventPublisher interface {
	PublishChatReplied(ctx context.Context, event queue.ChatRepliedEvent) error
}

// Handler bundles the dependencies shared by all endpoints.
type Handler struct {
	Logger    *slog.Logger         // service logger
	Telemetry *telemetry.Telemetry // reply counters
	Events    EventPublisher       // optional; nil disables chat events
}

// New constructs a Handler, substituting no-op implementations for nil
// logger and telemetry.
func New(logger *slog.Logger, tel *telemetry.Telemetry, events EventPublisher) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	if tel == nil {
		tel = telemetry.Noop()
	}
	return &Handler{Logger: logger, Telemetry: tel, Events: events}
}
