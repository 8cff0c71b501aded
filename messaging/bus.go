// Package messaging carries the detection and display notifications between
// the sorting bins, the token issuer and the kiosk displays.
package messaging

import "context"

// Message is one notification on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler processes a delivered message. Handlers run on the transport's
// delivery goroutine and must not block for long.
type Handler func(ctx context.Context, msg Message)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Subscriber interface {
	// Subscribe registers h for topic and returns a function that removes it.
	Subscribe(topic string, h Handler) (unsubscribe func(), err error)
}

// Bus is a process-wide handle created at startup and closed on shutdown.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
