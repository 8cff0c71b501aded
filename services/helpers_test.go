package services

import (
	"context"
	"testing"
	"time"

	"recycle-reward-system/messaging"
	"recycle-reward-system/models"
	"recycle-reward-system/testutil"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db         *gorm.DB
	clock      *clockwork.FakeClock
	bus        *messaging.MemoryBus
	tokens     *TokenStore
	ledger     *RewardLedger
	claims     *ClaimCoordinator
	issuer     *TokenIssuer
	challenges *ChallengeService
	users      *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	clock := clockwork.NewFakeClockAt(epoch)
	bus := messaging.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	env := &testEnv{db: db, clock: clock, bus: bus}
	env.tokens = NewTokenStore(db, clock, DefaultTokenTTL)
	env.ledger = NewRewardLedger(db, clock)
	env.claims = NewClaimCoordinator(db, env.tokens, env.ledger, NewChallengeEvaluator(env.ledger, clock))
	env.issuer = NewTokenIssuer(env.tokens, bus, models.DefaultPointSchedule, "token-ready")
	env.challenges = NewChallengeService(db)
	env.users = NewUserService(db, env.challenges)
	return env
}

func (e *testEnv) createUser(t *testing.T, id string) {
	t.Helper()
	_, err := e.users.Register(context.Background(), id, "user "+id, id+"@example.com")
	require.NoError(t, err)
}

func (e *testEnv) createChallenge(t *testing.T, title string, typ models.ChallengeType, goal, reward int64) models.Challenge {
	t.Helper()
	ch := models.Challenge{
		ID:           uuid.NewString(),
		Code:         uuid.NewString(),
		Title:        title,
		Description:  title,
		Type:         typ,
		Goal:         goal,
		RewardPoints: reward,
	}
	require.NoError(t, e.db.Create(&ch).Error)
	return ch
}

func (e *testEnv) join(t *testing.T, userID string, ch models.Challenge) {
	t.Helper()
	_, err := e.challenges.Join(context.Background(), userID, ch.ID)
	require.NoError(t, err)
}

func (e *testEnv) issue(t *testing.T, category string) *models.Token {
	t.Helper()
	tok, err := e.issuer.Issue(context.Background(), category)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.users.Get(context.Background(), id)
	require.NoError(t, err)
	return u
}
