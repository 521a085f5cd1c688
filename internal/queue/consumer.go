package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartChatConsumer connects to RabbitMQ, declares queueName (durable) and
// appends every ChatRepliedEvent to logPath as a single line. It reconnects
// with exponential backoff and returns only when ctx is done.
func StartChatConsumer(ctx context.Context, url, queueName, logPath string, logger *slog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("chat-consumer: failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queueName, logPath, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("chat-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, logPath string, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("chat-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			handleDelivery(d, logPath, logger)
		}
	}
}

// handleDelivery acks a delivery once its event is written and nacks it
// without requeue otherwise, so a poison message cannot loop.
func handleDelivery(d amqp.Delivery, logPath string, logger *slog.Logger) {
	if err := appendEvent(logPath, d.Body); err != nil {
		logger.Error("chat-consumer: handle message failed", "error", err)
		if nerr := d.Nack(false, false); nerr != nil {
			logger.Warn("chat-consumer: nack failed", "error", nerr)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Warn("chat-consumer: ack failed", "error", err)
	}
}

// appendEvent decodes body and appends one line to path, creating parent
// directories as needed.
func appendEvent(path string, body []byte) error {
	var ev ChatRepliedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatEvent renders ev as one newline-terminated log line.
func FormatEvent(ev ChatRepliedEvent) string {
	return fmt.Sprintf("[%s] Chat replied | rule=%s | message=%q | response=%q\n",
		ev.RepliedAt, ev.Rule, ev.Message, ev.Response)
}
