package services

import (
	"context"
	"testing"

	"recycle-reward-system/messaging"
	"recycle-reward-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_PublishesTokenID(t *testing.T) {
	env := newTestEnv(t)

	var published []string
	_, err := env.bus.Subscribe("token-ready", func(_ context.Context, msg messaging.Message) {
		published = append(published, string(msg.Payload))
	})
	require.NoError(t, err)

	tok := env.issue(t, " GLASS ")
	assert.Equal(t, models.CategoryGlass, tok.Category)
	assert.Equal(t, 15, tok.PointValue)
	assert.Equal(t, []string{tok.ID}, published)
}

func TestIssue_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.issuer.Issue(context.Background(), "styrofoam")
	assert.ErrorIs(t, err, models.ErrUnknownCategory)

	var count int64
	require.NoError(t, env.db.Model(&models.Token{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestIssue_PublishFailureKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.bus.Close())

	tok, err := env.issuer.Issue(context.Background(), "can")
	require.NoError(t, err)

	found, err := env.tokens.FindByID(context.Background(), tok.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusActive, found.Status)
}

func TestIssue_ScheduleOverride(t *testing.T) {
	env := newTestEnv(t)
	schedule, err := models.NewPointSchedule(map[string]int{"cardboard": 25})
	require.NoError(t, err)
	issuer := NewTokenIssuer(env.tokens, nil, schedule, "token-ready")

	tok, err := issuer.Issue(context.Background(), "cardboard")
	require.NoError(t, err)
	assert.Equal(t, 25, tok.PointValue)
}
