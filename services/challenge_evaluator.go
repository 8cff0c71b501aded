// services/challenge_evaluator.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"recycle-reward-system/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// ChallengeEvaluator settles a user's joined challenges after a claim.
type ChallengeEvaluator struct {
	Ledger *RewardLedger
	Clock  clockwork.Clock
}

func NewChallengeEvaluator(ledger *RewardLedger, clock clockwork.Clock) *ChallengeEvaluator {
	return &ChallengeEvaluator{Ledger: ledger, Clock: clock}
}

type EvaluationResult struct {
	User      *models.User
	Completed []models.Challenge
}

// Evaluate folds over the joined challenges in join order. A bonus earned by
// one challenge counts toward later "points" challenges in the same pass.
// Each completion is a conditional joined → completed update made as the fold
// reaches it; a completion lost to a concurrent claim adds nothing to the
// running total. The bonus total is written once, after the pass, inside tx.
func (e *ChallengeEvaluator) Evaluate(ctx context.Context, tx *gorm.DB, user *models.User) (*EvaluationResult, error) {
	var joined []models.UserChallenge
	err := tx.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ? AND status = ?", user.ID, models.UserChallengeJoined).
		Order("id ASC").
		Find(&joined).Error
	if err != nil {
		return nil, fmt.Errorf("load joined challenges: %w", err)
	}

	result := &EvaluationResult{User: user}
	if len(joined) == 0 {
		return result, nil
	}

	now := e.Clock.Now().UTC().Truncate(time.Microsecond)
	running := *user
	var bonus int64
	for _, uc := range joined {
		if uc.Challenge.ID == "" {
			continue
		}
		progress, err := e.progress(ctx, tx, &running, uc.Challenge)
		if err != nil {
			return nil, err
		}
		if progress < uc.Challenge.Goal {
			continue
		}

		res := tx.WithContext(ctx).
			Model(&models.UserChallenge{}).
			Where("id = ? AND status = ?", uc.ID, models.UserChallengeJoined).
			Updates(map[string]interface{}{
				"status":       models.UserChallengeCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("complete challenge %s: %w", uc.ChallengeID, res.Error)
		}
		if res.RowsAffected == 0 {
			// settled by a concurrent claim of the same user
			continue
		}

		running.Points += uc.Challenge.RewardPoints
		bonus += uc.Challenge.RewardPoints
		result.Completed = append(result.Completed, uc.Challenge)
		log.Printf("🏆 [CHALLENGE] User %s completed challenge: %s (+%d pts)", user.ID, uc.Challenge.Title, uc.Challenge.RewardPoints)
	}

	if len(result.Completed) == 0 {
		return result, nil
	}

	if bonus > 0 {
		err := tx.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("points", gorm.Expr("points + ?", bonus)).Error
		if err != nil {
			return nil, fmt.Errorf("credit challenge bonus: %w", err)
		}
	}

	var fresh models.User
	if err := tx.WithContext(ctx).Where("id = ?", user.ID).First(&fresh).Error; err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	result.User = &fresh
	return result, nil
}

func (e *ChallengeEvaluator) progress(ctx context.Context, tx *gorm.DB, user *models.User, ch models.Challenge) (int64, error) {
	switch ch.Type {
	case models.ChallengeTotalItems:
		return user.TotalRecycled, nil
	case models.ChallengePoints:
		return user.Points, nil
	}
	category, ok := ch.Type.Category()
	if !ok {
		log.Printf("⚠️ [CHALLENGE] Challenge %s has unknown type %q, skipping", ch.ID, ch.Type)
		return 0, nil
	}
	return e.Ledger.CountByCategory(ctx, tx, user.ID, category)
}
