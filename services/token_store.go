// services/token_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recycle-reward-system/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// DefaultTokenTTL is how long an unclaimed token stays redeemable.
const DefaultTokenTTL = 10 * time.Minute

// TokenStore owns Token rows. Expiry is enforced in every query through
// expires_at, so callers never need to clean up.
type TokenStore struct {
	DB    *gorm.DB
	Clock clockwork.Clock
	TTL   time.Duration
}

func NewTokenStore(db *gorm.DB, clock clockwork.Clock, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenStore{DB: db, Clock: clock, TTL: ttl}
}

func (s *TokenStore) now() time.Time {
	return s.Clock.Now().UTC().Truncate(time.Microsecond)
}

// Create persists a fresh active token with a random v4 UUID id.
func (s *TokenStore) Create(ctx context.Context, category models.Category, pointValue int) (*models.Token, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCategory, category)
	}
	if pointValue < 0 {
		return nil, fmt.Errorf("point value must be >= 0, got %d", pointValue)
	}

	now := s.now()
	tok := &models.Token{
		ID:         uuid.NewString(),
		Category:   category,
		PointValue: pointValue,
		Status:     models.TokenStatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.TTL),
	}
	if err := s.DB.WithContext(ctx).Create(tok).Error; err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return tok, nil
}

// FindByID returns claimed tokens and unexpired active tokens. Anything else,
// including a token past its deadline, is ErrTokenNotFound.
func (s *TokenStore) FindByID(ctx context.Context, id string) (*models.Token, error) {
	var tok models.Token
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch {
	case tok.Status == models.TokenStatusClaimed:
		return &tok, nil
	case tok.Status == models.TokenStatusActive && tok.ExpiresAt.After(s.now()):
		return &tok, nil
	default:
		return nil, ErrTokenNotFound
	}
}

// TryClaim moves a token from active to claimed in one conditional UPDATE.
// Of any number of concurrent callers for the same id, exactly one gets the row.
func (s *TokenStore) TryClaim(ctx context.Context, id, userID string) (*models.Token, error) {
	now := s.now()
	res := s.DB.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, models.TokenStatusActive, now).
		Updates(map[string]interface{}{
			"status":     models.TokenStatusClaimed,
			"claimed_by": userID,
			"claimed_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claim token: %w", res.Error)
	}

	tok, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 1 {
		return tok, nil
	}
	if tok.Status == models.TokenStatusClaimed {
		return nil, ErrTokenAlreadyClaimed
	}
	return nil, ErrTokenNotFound
}

// ExpireStale flags active tokens past their deadline as expired.
func (s *TokenStore) ExpireStale(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Token{}).
		Where("status = ? AND expires_at <= ?", models.TokenStatusActive, s.now()).
		Update("status", models.TokenStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeExpired deletes expired tokens whose deadline is older than retention.
func (s *TokenStore) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", models.TokenStatusExpired, s.now().Add(-retention)).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ClaimCursor is a keyset position in (claimed_at, id) order.
type ClaimCursor struct {
	ClaimedAt time.Time
	ID        string
}

// ClaimedWithoutLedger lists tokens claimed before cutoff that have no ledger
// entry yet, i.e. claims interrupted between the token update and crediting.
// Results are ordered by (claimed_at, id) and start strictly after the cursor
// when one is given.
func (s *TokenStore) ClaimedWithoutLedger(ctx context.Context, cutoff time.Time, after *ClaimCursor, limit int) ([]models.Token, error) {
	q := s.DB.WithContext(ctx).
		Where("status = ? AND claimed_at <= ?", models.TokenStatusClaimed, cutoff.UTC()).
		Where("NOT EXISTS (SELECT 1 FROM recycle_logs r WHERE r.token_id = tokens.id)")
	if after != nil {
		at := after.ClaimedAt.UTC()
		q = q.Where("(claimed_at > ? OR (claimed_at = ? AND id > ?))", at, at, after.ID)
	}

	var toks []models.Token
	err := q.Order("claimed_at ASC, id ASC").Limit(limit).Find(&toks).Error
	if err != nil {
		return nil, fmt.Errorf("list uncredited tokens: %w", err)
	}
	return toks, nil
}
