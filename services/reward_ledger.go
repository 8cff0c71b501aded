// services/reward_ledger.go
package services

import (
	"context"
	"fmt"
	"time"

	"recycle-reward-system/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultHistoryLimit = 50

// RewardLedger appends RecycleLog rows and keeps the user's running totals in step.
type RewardLedger struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

func NewRewardLedger(db *gorm.DB, clock clockwork.Clock) *RewardLedger {
	return &RewardLedger{DB: db, Clock: clock}
}

// Credit records tok for userID inside tx. It is idempotent per token: when an
// entry for tok.ID already exists nothing is changed and credited is false.
func (l *RewardLedger) Credit(ctx context.Context, tx *gorm.DB, tok *models.Token, userID string) (credited bool, err error) {
	entry := models.RecycleLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     tok.Category,
		TokenID:      tok.ID,
		PointsEarned: tok.PointValue,
		ScannedAt:    l.Clock.Now().UTC().Truncate(time.Microsecond),
	}

	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_id"}}, DoNothing: true}).
		Create(&entry)
	if res.Error != nil {
		return false, fmt.Errorf("append recycle log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	res = tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"points":         gorm.Expr("points + ?", tok.PointValue),
			"total_recycled": gorm.Expr("total_recycled + ?", 1),
		})
	if res.Error != nil {
		return false, fmt.Errorf("increment user totals: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, ErrUserNotFound
	}
	return true, nil
}

// CountByCategory counts ledger rows for a user and category, as seen by tx.
func (l *RewardLedger) CountByCategory(ctx context.Context, tx *gorm.DB, userID string, category models.Category) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&models.RecycleLog{}).
		Where("user_id = ? AND category = ?", userID, category).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count recycle logs: %w", err)
	}
	return n, nil
}

// History returns a user's most recent entries, newest first.
func (l *RewardLedger) History(ctx context.Context, userID string, limit int) ([]models.RecycleLog, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	var entries []models.RecycleLog
	err := l.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Between returns entries scanned in [from, to), oldest first.
func (l *RewardLedger) Between(ctx context.Context, from, to time.Time) ([]models.RecycleLog, error) {
	var entries []models.RecycleLog
	err := l.DB.WithContext(ctx).
		Where("scanned_at >= ? AND scanned_at < ?", from.UTC(), to.UTC()).
		Order("scanned_at ASC").
		Find(&entries).Error
	return entries, err
}
