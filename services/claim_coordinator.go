// services/claim_coordinator.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"recycle-reward-system/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

const repairBatchSize = 100

// ClaimCoordinator redeems tokens for users. TokenStore.TryClaim is the only
// point where concurrent claims of one token are arbitrated.
type ClaimCoordinator struct {
	DB        *gorm.DB
	Tokens    *TokenStore
	Ledger    *RewardLedger
	Evaluator *ChallengeEvaluator
	printer   *message.Printer
}

func NewClaimCoordinator(db *gorm.DB, tokens *TokenStore, ledger *RewardLedger, evaluator *ChallengeEvaluator) *ClaimCoordinator {
	return &ClaimCoordinator{
		DB:        db,
		Tokens:    tokens,
		Ledger:    ledger,
		Evaluator: evaluator,
		printer:   message.NewPrinter(language.English),
	}
}

// ClaimResult is what a successful claim reports back to the user.
type ClaimResult struct {
	TokenID             string
	Category            models.Category
	PointsEarned        int
	NewTotalPoints      int64
	TotalRecycled       int64
	CompletedChallenges []models.Challenge
	Message             string
}

// Claim redeems tokenID for userID.
//
// Once TryClaim succeeds the token is never returned to active. If crediting
// fails afterwards (unknown user, store outage, abandoned request) the token
// stays claimed and RepairUncredited finishes the job later.
func (c *ClaimCoordinator) Claim(ctx context.Context, userID, tokenID string) (*ClaimResult, error) {
	userID = strings.TrimSpace(userID)
	tokenID = strings.TrimSpace(tokenID)
	if userID == "" || tokenID == "" {
		return nil, ErrInvalidRequest
	}

	tok, err := c.Tokens.TryClaim(ctx, tokenID, userID)
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return nil, ErrTokenInvalid
	case errors.Is(err, ErrTokenAlreadyClaimed):
		return nil, ErrTokenAlreadyUsed
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result, err := c.credit(ctx, tok, userID)
	if errors.Is(err, ErrUserNotFound) {
		log.Printf("🚨 [CLAIM] Token %s spent by unknown user %s, needs reconciliation", tok.ID, userID)
		return nil, err
	}
	if errors.Is(err, errAlreadyCredited) {
		// RepairUncredited got there first; report the same outcome a retry would.
		return nil, ErrTokenAlreadyUsed
	}
	if err != nil {
		log.Printf("❌ [CLAIM] Token %s claimed but not credited for %s: %v", tok.ID, userID, err)
		return nil, err
	}

	log.Printf("✅ [CLAIM] User %s claimed %d points for %s (total=%d)", userID, tok.PointValue, tok.Category, result.NewTotalPoints)
	return result, nil
}

// credit runs ledger append, totals update and challenge evaluation as one
// transaction.
func (c *ClaimCoordinator) credit(ctx context.Context, tok *models.Token, userID string) (*ClaimResult, error) {
	var result *ClaimResult
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		credited, err := c.Ledger.Credit(ctx, tx, tok, userID)
		if err != nil {
			return err
		}
		if !credited {
			return errAlreadyCredited
		}

		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		eval, err := c.Evaluator.Evaluate(ctx, tx, &user)
		if err != nil {
			return err
		}

		result = &ClaimResult{
			TokenID:             tok.ID,
			Category:            tok.Category,
			PointsEarned:        tok.PointValue,
			NewTotalPoints:      eval.User.Points,
			TotalRecycled:       eval.User.TotalRecycled,
			CompletedChallenges: eval.Completed,
			Message:             c.composeMessage(tok.PointValue, eval.Completed),
		}
		return nil
	})
	if err == nil || errors.Is(err, ErrUserNotFound) || errors.Is(err, errAlreadyCredited) {
		return result, err
	}
	return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (c *ClaimCoordinator) composeMessage(points int, completed []models.Challenge) string {
	var b strings.Builder
	b.WriteString(c.printer.Sprintf("Successfully claimed %d points!", points))
	for _, ch := range completed {
		b.WriteString(c.printer.Sprintf(" | Completed %s (+%d pts!)", ch.Title, ch.RewardPoints))
	}
	return b.String()
}

// RepairUncredited credits tokens that were claimed at least grace ago but
// have no ledger entry. Running it repeatedly is safe: crediting is keyed by
// token id. Tokens whose claimant is still unknown are stepped over, so they
// never hide later tokens from the scan.
func (c *ClaimCoordinator) RepairUncredited(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := c.Tokens.Clock.Now().Add(-grace)
	repaired := 0
	var cursor *ClaimCursor

	for {
		toks, err := c.Tokens.ClaimedWithoutLedger(ctx, cutoff, cursor, repairBatchSize)
		if err != nil {
			return repaired, err
		}

		for i := range toks {
			tok := &toks[i]
			if tok.ClaimedBy == nil {
				continue
			}
			_, err := c.credit(ctx, tok, *tok.ClaimedBy)
			switch {
			case err == nil:
				repaired++
				log.Printf("🔧 [REPAIR] Credited token %s to user %s", tok.ID, *tok.ClaimedBy)
			case errors.Is(err, errAlreadyCredited):
			case errors.Is(err, ErrUserNotFound):
				log.Printf("🚨 [REPAIR] Token %s still points at unknown user %s", tok.ID, *tok.ClaimedBy)
			default:
				return repaired, err
			}
		}

		if len(toks) < repairBatchSize {
			return repaired, nil
		}
		last := toks[len(toks)-1]
		cursor = &ClaimCursor{ID: last.ID}
		if last.ClaimedAt != nil {
			cursor.ClaimedAt = *last.ClaimedAt
		}
	}
}
