package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler processes one inbound event payload.
type Handler func(ctx context.Context, subject string, data []byte) error

// RequestHandler answers one request; the returned value is sent back as JSON.
type RequestHandler func(ctx context.Context, data []byte) any

// Bus is a fire-and-forget publish/subscribe channel between services.
type Bus interface {
	Publish(ctx context.Context, subject string, v any) error
	Subscribe(subject string, h Handler) error
	Close() error
}

// Responder serves request/reply queries.
type Responder interface {
	Respond(subject string, h RequestHandler) error
}

func encode(subject string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", subject, err)
	}
	return data, nil
}
