// services/token_issuer.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"recycle-reward-system/messaging"
	"recycle-reward-system/models"
)

const publishTimeout = 3 * time.Second

// TokenIssuer turns a detected item into a claimable token and announces it
// on the display topic.
type TokenIssuer struct {
	Store        *TokenStore
	Publisher    messaging.Publisher
	Schedule     models.PointSchedule
	DisplayTopic string
}

func NewTokenIssuer(store *TokenStore, pub messaging.Publisher, schedule models.PointSchedule, displayTopic string) *TokenIssuer {
	if schedule == nil {
		schedule = models.DefaultPointSchedule
	}
	return &TokenIssuer{Store: store, Publisher: pub, Schedule: schedule, DisplayTopic: displayTopic}
}

// Issue validates label, creates the token and publishes its id.
// Unknown labels return models.ErrUnknownCategory; store failures are
// wrapped in ErrStoreUnavailable. A failed publish is only logged.
func (i *TokenIssuer) Issue(ctx context.Context, label string) (*models.Token, error) {
	category, err := models.ParseCategory(label)
	if err != nil {
		return nil, err
	}

	tok, err := i.Store.Create(ctx, category, i.Schedule.PointsFor(category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	log.Printf("🎫 [ISSUER] Token created: %s (%s, %d pts)", tok.ID, tok.Category, tok.PointValue)

	i.publish(ctx, tok)
	return tok, nil
}

func (i *TokenIssuer) publish(ctx context.Context, tok *models.Token) {
	if i.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := i.Publisher.Publish(pubCtx, i.DisplayTopic, []byte(tok.ID)); err != nil {
		log.Printf("⚠️ [ISSUER] Publish of token %s to '%s' failed (token kept): %v", tok.ID, i.DisplayTopic, err)
		return
	}
	log.Printf("📺 [ISSUER] Token sent to display: %s", tok.ID)
}
