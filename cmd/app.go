package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"recycle-reward-system/config"
	"recycle-reward-system/database"
	"recycle-reward-system/messaging"
	"recycle-reward-system/models"
	"recycle-reward-system/services"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// runtime holds the wired services shared by the subcommands.
type runtime struct {
	cfg   *config.Config
	db    *gorm.DB
	bus   messaging.Bus
	clock clockwork.Clock

	tokens     *services.TokenStore
	ledger     *services.RewardLedger
	claims     *services.ClaimCoordinator
	issuer     *services.TokenIssuer
	challenges *services.ChallengeService
	users      *services.UserService
	display    *services.DisplayStream
}

// newRuntime loads config, opens and migrates the store and connects the bus.
// Callers must call close.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}

	bus, err := openBus(cfg)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	schedule, err := models.NewPointSchedule(cfg.PointSchedule)
	if err != nil {
		bus.Close()
		database.Close(db)
		return nil, fmt.Errorf("POINT_SCHEDULE: %w", err)
	}

	clock := clockwork.NewRealClock()
	rt := &runtime{cfg: cfg, db: db, bus: bus, clock: clock}
	rt.tokens = services.NewTokenStore(db, clock, cfg.TokenTTL)
	rt.ledger = services.NewRewardLedger(db, clock)
	rt.claims = services.NewClaimCoordinator(db, rt.tokens, rt.ledger, services.NewChallengeEvaluator(rt.ledger, clock))
	rt.issuer = services.NewTokenIssuer(rt.tokens, bus, schedule, cfg.DisplayTopic)
	rt.challenges = services.NewChallengeService(db)
	rt.users = services.NewUserService(db, rt.challenges)
	rt.display = services.NewDisplayStream(bus, cfg.DisplayTopic, cfg.QRBaseURL)
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.bus.Close(); err != nil {
		log.Printf("⚠️ [BUS] Close failed: %v", err)
	}
	database.Close(rt.db)
}

// openBus uses MQTT when a broker is configured and an in-process bus otherwise.
func openBus(cfg *config.Config) (messaging.Bus, error) {
	if strings.TrimSpace(cfg.MQTTBrokerURL) == "" {
		log.Println("⚠️  MQTT_BROKER_URL not set, using in-process message bus")
		return messaging.NewMemoryBus(), nil
	}
	return messaging.NewMQTTBus(cfg.MQTTBrokerURL, cfg.MQTTClientID)
}

func (rt *runtime) seedChallenges(ctx context.Context, data []byte) (int, error) {
	seeds, err := services.ParseChallengeSeeds(data)
	if err != nil {
		return 0, err
	}
	if err := rt.challenges.Seed(ctx, seeds); err != nil {
		return 0, err
	}
	return len(seeds), nil
}
