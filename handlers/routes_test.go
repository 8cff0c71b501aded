package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"recycle-reward-system/messaging"
	"recycle-reward-system/middleware"
	"recycle-reward-system/models"
	"recycle-reward-system/services"
	"recycle-reward-system/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deviceToken = "bin-secret"

type testServer struct {
	app        *fiber.App
	users      *services.UserService
	challenges *services.ChallengeService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	clock := clockwork.NewRealClock()
	bus := messaging.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	tokens := services.NewTokenStore(db, clock, services.DefaultTokenTTL)
	ledger := services.NewRewardLedger(db, clock)
	claims := services.NewClaimCoordinator(db, tokens, ledger, services.NewChallengeEvaluator(ledger, clock))
	issuer := services.NewTokenIssuer(tokens, bus, models.DefaultPointSchedule, "token-ready")
	challenges := services.NewChallengeService(db)
	users := services.NewUserService(db, challenges)
	display := services.NewDisplayStream(bus, "token-ready", "https://qr.example/?data=")

	app := fiber.New()
	app.Use(middleware.UserContextMiddleware())
	SetupClaimRoutes(app, claims)
	SetupTokenRoutes(app, issuer, display, deviceToken)
	SetupChallengeRoutes(app, challenges)
	SetupUserRoutes(app, users, ledger)

	return &testServer{app: app, users: users, challenges: challenges}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) generate(t *testing.T, body map[string]string) string {
	t.Helper()
	status, out := s.do(t, http.MethodPost, "/token/generate", body, map[string]string{"Authorization": "Bearer " + deviceToken})
	require.Equal(t, http.StatusOK, status, out)
	id, _ := out["tokenId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestGenerateToken(t *testing.T) {
	s := newTestServer(t)

	status, out := s.do(t, http.MethodPost, "/token/generate", map[string]string{"wasteType": "glass"},
		map[string]string{"Authorization": "Bearer " + deviceToken})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 15, out["points"])
	assert.Equal(t, "https://qr.example/?data="+out["tokenId"].(string), out["qrUrl"])
}

func TestGenerateToken_Errors(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/token/generate", map[string]string{"category": "plastic"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/token/generate", map[string]string{"category": "plastic"},
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out := s.do(t, http.MethodPost, "/token/generate", map[string]string{"category": "metal"},
		map[string]string{"Authorization": "Bearer " + deviceToken})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UnknownCategory", out["code"])
}

func TestClaim(t *testing.T) {
	s := newTestServer(t)
	_, err := s.users.Register(context.Background(), "alice", "Alice", "")
	require.NoError(t, err)
	tokenID := s.generate(t, map[string]string{"category": "plastic"})

	status, out := s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "alice", "tokenId": tokenID}, nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 10, out["newTotalPoints"])
	assert.Equal(t, "plastic", out["category"])
	assert.Equal(t, "plastic", out["trashType"])
	assert.Equal(t, "Successfully claimed 10 points!", out["message"])
	assert.Empty(t, out["completedChallenges"])

	status, out = s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "alice", "tokenId": tokenID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "TokenAlreadyUsed", out["code"])
	assert.Equal(t, false, out["success"])
}

func TestClaim_AliasAndFallbacks(t *testing.T) {
	s := newTestServer(t)
	_, err := s.users.Register(context.Background(), "alice", "Alice", "")
	require.NoError(t, err)
	tokenID := s.generate(t, map[string]string{"category": "can"})

	status, out := s.do(t, http.MethodPost, "/api/recycle/claim", map[string]string{"tokenValue": tokenID},
		map[string]string{"X-User-ID": "alice"})
	require.Equal(t, http.StatusOK, status, out)
	assert.EqualValues(t, 10, out["newTotalPoints"])
}

func TestClaim_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	tokenID := s.generate(t, map[string]string{"category": "paper"})

	status, out := s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidRequest", out["code"])

	status, out = s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "alice", "tokenId": "nope"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "TokenInvalid", out["code"])

	status, out = s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "ghost", "tokenId": tokenID}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UserNotFound", out["code"])
}

func TestChallengesAndUser(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	seeds, err := services.ParseChallengeSeeds(nil)
	require.NoError(t, err)
	require.NoError(t, s.challenges.Seed(ctx, seeds))

	status, _ := s.do(t, http.MethodPost, "/users", map[string]string{"id": "alice", "name": "Alice"}, nil)
	require.Equal(t, http.StatusCreated, status)
	status, out := s.do(t, http.MethodPost, "/users", map[string]string{"id": "alice", "name": "Alice"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "UserExists", out["code"])

	all, err := s.challenges.List(ctx)
	require.NoError(t, err)
	var starter models.Challenge
	for _, ch := range all {
		if ch.Code == "eco-starter" {
			starter = ch
		}
	}
	require.NotEmpty(t, starter.ID)

	status, out = s.do(t, http.MethodPost, "/challenges/join", map[string]string{"userId": "alice", "challengeId": starter.ID}, nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, []any{starter.ID}, out["joinedChallenges"])

	status, out = s.do(t, http.MethodPost, "/challenges/join", map[string]string{"userId": "alice", "challengeId": starter.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AlreadyJoined", out["code"])

	status, out = s.do(t, http.MethodPost, "/challenges/join", map[string]string{"userId": "alice", "challengeId": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ChallengeNotFound", out["code"])

	tokenID := s.generate(t, map[string]string{"category": "plastic"})
	status, out = s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "alice", "tokenId": tokenID}, nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.EqualValues(t, 60, out["newTotalPoints"])
	assert.Equal(t, "Successfully claimed 10 points! | Completed Eco Starter (+50 pts!)", out["message"])
	completed, ok := out["completedChallenges"].([]any)
	require.True(t, ok)
	require.Len(t, completed, 1)

	status, out = s.do(t, http.MethodGet, "/user/alice", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 60, out["points"])
	assert.EqualValues(t, 1, out["totalRecycled"])
	assert.Equal(t, []any{starter.ID}, out["completedChallenges"])
	assert.Equal(t, []any{}, out["joinedChallenges"])

	status, out = s.do(t, http.MethodGet, "/user/nobody", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UserNotFound", out["code"])
}

func TestLeaderboardAndHistory(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"alice", "bob"} {
		_, err := s.users.Register(context.Background(), id, id, "")
		require.NoError(t, err)
	}
	for _, c := range []string{"glass", "plastic"} {
		tokenID := s.generate(t, map[string]string{"category": c})
		status, _ := s.do(t, http.MethodPost, "/claim", map[string]string{"userId": "bob", "tokenId": tokenID}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var board []services.LeaderboardEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0].ID)
	assert.EqualValues(t, 25, board[0].Points)

	req = httptest.NewRequest(http.MethodGet, "/history/bob", nil)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var history []models.RecycleLog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Len(t, history, 2)
}
