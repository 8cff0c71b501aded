// workers/detection_consumer.go
package workers

import (
	"context"
	"errors"
	"log"

	"recycle-reward-system/messaging"
	"recycle-reward-system/models"
	"recycle-reward-system/services"
)

// DetectionConsumer feeds item-detected notifications into the token issuer.
type DetectionConsumer struct {
	Issuer *services.TokenIssuer
	Topic  string
}

func NewDetectionConsumer(issuer *services.TokenIssuer, topic string) *DetectionConsumer {
	return &DetectionConsumer{Issuer: issuer, Topic: topic}
}

// Start subscribes to the detection topic and returns the unsubscribe func.
func (d *DetectionConsumer) Start(sub messaging.Subscriber) (func(), error) {
	unsubscribe, err := sub.Subscribe(d.Topic, d.Handle)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [DETECT] Listening for detections on '%s'", d.Topic)
	return unsubscribe, nil
}

// Handle issues one token per detection. Bad labels and store failures are
// logged and the event is dropped.
func (d *DetectionConsumer) Handle(ctx context.Context, msg messaging.Message) {
	label := string(msg.Payload)
	log.Printf("♻️ [DETECT] Trash sorted detected: %q", label)

	_, err := d.Issuer.Issue(ctx, label)
	switch {
	case errors.Is(err, models.ErrUnknownCategory):
		log.Printf("🚫 [DETECT] Dropped detection with unknown category %q", label)
	case err != nil:
		log.Printf("❌ [DETECT] Dropped detection %q: %v", label, err)
	}
}
