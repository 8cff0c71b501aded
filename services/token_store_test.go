package services

import (
	"context"
	"testing"
	"time"

	"recycle-reward-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_CreateAndFind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryGlass, 15)
	require.NoError(t, err)
	assert.Len(t, tok.ID, 36)
	assert.Equal(t, models.TokenStatusActive, tok.Status)
	assert.Nil(t, tok.ClaimedBy)
	assert.True(t, tok.ExpiresAt.Equal(epoch.Add(DefaultTokenTTL)))

	found, err := env.tokens.FindByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGlass, found.Category)
	assert.Equal(t, 15, found.PointValue)
}

func TestTokenStore_CreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Create(ctx, models.Category("metal"), 10)
	assert.ErrorIs(t, err, models.ErrUnknownCategory)

	_, err = env.tokens.Create(ctx, models.CategoryPlastic, -1)
	assert.Error(t, err)
}

func TestTokenStore_FindUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.FindByID(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenStore_TryClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryPlastic, 10)
	require.NoError(t, err)

	claimed, err := env.tokens.TryClaim(ctx, tok.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimedBy)
	assert.Equal(t, "alice", *claimed.ClaimedBy)
	require.NotNil(t, claimed.ClaimedAt)

	_, err = env.tokens.TryClaim(ctx, tok.ID, "bob")
	assert.ErrorIs(t, err, ErrTokenAlreadyClaimed)

	again, err := env.tokens.FindByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", *again.ClaimedBy)
}

func TestTokenStore_ExpiredTokenIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryPlastic, 10)
	require.NoError(t, err)

	env.clock.Advance(DefaultTokenTTL + time.Second)

	_, err = env.tokens.FindByID(ctx, tok.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = env.tokens.TryClaim(ctx, tok.ID, "alice")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenStore_ExpiresExactlyAtDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryCan, 10)
	require.NoError(t, err)

	env.clock.Advance(DefaultTokenTTL)

	_, err = env.tokens.TryClaim(ctx, tok.ID, "alice")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenStore_SweepAndPurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale, err := env.tokens.Create(ctx, models.CategoryPaper, 10)
	require.NoError(t, err)
	claimed, err := env.tokens.Create(ctx, models.CategoryPaper, 10)
	require.NoError(t, err)
	_, err = env.tokens.TryClaim(ctx, claimed.ID, "alice")
	require.NoError(t, err)

	env.clock.Advance(DefaultTokenTTL + time.Minute)
	fresh, err := env.tokens.Create(ctx, models.CategoryPaper, 10)
	require.NoError(t, err)

	n, err := env.tokens.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var row models.Token
	require.NoError(t, env.db.Where("id = ?", stale.ID).First(&row).Error)
	assert.Equal(t, models.TokenStatusExpired, row.Status)

	// inside the retention window nothing is purged
	purged, err := env.tokens.PurgeExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 0, purged)

	env.clock.Advance(2 * time.Hour)
	SweepExpiredTokens(ctx, env.tokens, time.Hour)

	// both unclaimed tokens are gone; the claimed one survives every sweep
	var remaining []models.Token
	require.NoError(t, env.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, claimed.ID, remaining[0].ID)
	assert.NotEqual(t, fresh.ID, remaining[0].ID)
}

func TestTokenStore_TryClaimLosesToConcurrentWriter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryPlastic, 10)
	require.NoError(t, err)

	// alice read the token as active, then another claim commits first
	seen, err := env.tokens.FindByID(ctx, tok.ID)
	require.NoError(t, err)
	require.Equal(t, models.TokenStatusActive, seen.Status)
	require.NoError(t, env.db.Model(&models.Token{}).Where("id = ?", tok.ID).
		Updates(map[string]interface{}{"status": models.TokenStatusClaimed, "claimed_by": "bob", "claimed_at": epoch}).Error)

	_, err = env.tokens.TryClaim(ctx, tok.ID, "alice")
	assert.ErrorIs(t, err, ErrTokenAlreadyClaimed)

	stored, err := env.tokens.FindByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", *stored.ClaimedBy)
}

func TestTokenStore_SweepBetweenReadAndClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tok, err := env.tokens.Create(ctx, models.CategoryCan, 10)
	require.NoError(t, err)
	_, err = env.tokens.FindByID(ctx, tok.ID)
	require.NoError(t, err)

	env.clock.Advance(DefaultTokenTTL)
	n, err := env.tokens.ExpireStale(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = env.tokens.TryClaim(ctx, tok.ID, "alice")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// a claim that won before the sweep is never expired by it
	won, err := env.tokens.Create(ctx, models.CategoryCan, 10)
	require.NoError(t, err)
	_, err = env.tokens.TryClaim(ctx, won.ID, "alice")
	require.NoError(t, err)
	env.clock.Advance(DefaultTokenTTL)
	n, err = env.tokens.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestTokenStore_ClaimedWithoutLedgerCursor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tok, err := env.tokens.Create(ctx, models.CategoryPaper, 10)
		require.NoError(t, err)
		_, err = env.tokens.TryClaim(ctx, tok.ID, "ghost")
		require.NoError(t, err)
	}

	first, err := env.tokens.ClaimedWithoutLedger(ctx, env.clock.Now(), nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Less(t, first[0].ID, first[1].ID)

	rest, err := env.tokens.ClaimedWithoutLedger(ctx, env.clock.Now(), &ClaimCursor{ClaimedAt: *first[1].ClaimedAt, ID: first[1].ID}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotContains(t, []string{first[0].ID, first[1].ID}, rest[0].ID)
}
