package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// Operation is the change kind carried in a notification payload.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Event is a decoded change notification. It carries identity only; the
// authoritative row is always re-read at apply time.
type Event struct {
	Key       string    `json:"key"`
	Operation Operation `json:"operation"`
}

var errMalformedPayload = errors.New("malformed notification payload")

// Listener holds one dedicated connection used exclusively for LISTEN; data
// queries never run on it.
type Listener struct {
	conn    *pgx.Conn
	channel string
}

// Listen opens the notification connection and subscribes to channel.
func Listen(ctx context.Context, dsn, channel string) (*Listener, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect notify: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return &Listener{conn: conn, channel: channel}, nil
}

// Next blocks up to timeout for the next well-formed change event. It returns
// ok=false on window expiry. Malformed payloads are logged and skipped within
// the same wait budget; they are never fatal. A zero timeout drains only
// notifications already buffered on the connection.
func (l *Listener) Next(ctx context.Context, timeout time.Duration) (Event, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		waitCtx, cancel := context.WithDeadline(ctx, deadline)
		notification, err := l.conn.WaitForNotification(waitCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return Event{}, false, nil
			}
			return Event{}, false, fmt.Errorf("wait for notification: %w", err)
		}

		event, err := decodeEvent([]byte(notification.Payload))
		if err != nil {
			log.Printf("notify: dropping payload on %s: %v", l.channel, err)
			continue
		}
		return event, true, nil
	}
}

// Close releases the notification connection.
func (l *Listener) Close(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close(ctx)
	l.conn = nil
	return err
}

func decodeEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	if event.Key == "" {
		return Event{}, fmt.Errorf("%w: missing key", errMalformedPayload)
	}
	switch event.Operation {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Event{}, fmt.Errorf("%w: unknown operation %q", errMalformedPayload, event.Operation)
	}
	return event, nil
}
