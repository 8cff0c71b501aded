package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"recycle-reward-system/messaging"

	"github.com/gofiber/fiber/v2"
)

const (
	displayKeepAlive  = 15 * time.Second
	displayBufferSize = 16
)

// DisplayStream relays token-ready notifications to kiosk screens over SSE.
type DisplayStream struct {
	Subscriber messaging.Subscriber
	Topic      string
	QRBaseURL  string
}

func NewDisplayStream(sub messaging.Subscriber, topic, qrBaseURL string) *DisplayStream {
	return &DisplayStream{Subscriber: sub, Topic: topic, QRBaseURL: qrBaseURL}
}

// DisplayEvent is the JSON body of each SSE "token" event.
type DisplayEvent struct {
	TokenID string `json:"tokenId"`
	QRURL   string `json:"qrUrl,omitempty"`
}

// QRURL returns the QR image URL for a token id, or "" when no renderer is configured.
func (d *DisplayStream) QRURL(tokenID string) string {
	if d.QRBaseURL == "" {
		return ""
	}
	return d.QRBaseURL + url.QueryEscape(tokenID)
}

// Stream is a fiber handler: GET /display/stream
func (d *DisplayStream) Stream(c *fiber.Ctx) error {
	events := make(chan DisplayEvent, displayBufferSize)
	unsubscribe, err := d.Subscriber.Subscribe(d.Topic, func(_ context.Context, msg messaging.Message) {
		ev := DisplayEvent{TokenID: string(msg.Payload), QRURL: d.QRURL(string(msg.Payload))}
		select {
		case events <- ev:
		default:
			log.Printf("⚠️ [DISPLAY] Slow consumer, dropped token %s", ev.TokenID)
		}
	})
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "display stream unavailable"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(displayKeepAlive)
		defer ticker.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev := <-events:
				payload, _ := json.Marshal(ev)
				fmt.Fprintf(w, "event: token\ndata: %s\n\n", payload)
			case <-ticker.C:
				w.WriteString(":\n\n")
			case <-done:
				return
			}
			if err := w.Flush(); err != nil {
				// Client disconnected
				return
			}
		}
	})
	return nil
}
