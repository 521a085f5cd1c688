package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/simple-chat-api/internal/queue"
	"github.com/iliyamo/simple-chat-api/internal/responder"
)

// ----- DTOs -----

// ChatRequest is the body of POST /chat.  Message is a pointer so that an
// absent field can be told apart from an empty string.
type ChatRequest struct {
	Message *string `json:"message"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response        string `json:"response"`
	OriginalMessage string `json:"original_message"`
}

// Chat maps the message to a canned reply.  A missing or malformed message
// is rejected with 422 before any matching happens.
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Warn("Chat request rejected: invalid body", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "invalid request body",
			Detail: "body must be a JSON object with a string field 'message'",
		})
	}
	if req.Message == nil {
		h.Logger.Warn("Chat request rejected: message missing")
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation error",
			Detail: "field 'message' is required",
		})
	}

	message := *req.Message
	h.Logger.Info("Chat endpoint called", "message", message)

	rule, reply := responder.Match(message)
	h.Logger.Info("Successfully processed chat request",
		"rule", string(rule), "original", message, "response", reply)

	ctx := c.Request().Context()
	h.Telemetry.RecordReply(ctx, string(rule))
	h.publish(ctx, queue.ChatRepliedEvent{
		Rule:      string(rule),
		Message:   message,
		Response:  reply,
		RepliedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, ChatResponse{Response: reply, OriginalMessage: message})
}

// publish hands the event to the publisher.  Handler.Events must not block,
// so a slow or unavailable broker never delays the reply.
func (h *Handler) publish(ctx context.Context, ev queue.ChatRepliedEvent) {
	if h.Events == nil {
		return
	}
	if err := h.Events.PublishChatReplied(ctx, ev); err != nil {
		h.Logger.Warn("chat event not queued", "rule", ev.Rule, "error", err)
	}
}
