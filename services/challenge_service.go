// services/challenge_service.go
package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"recycle-reward-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed challenges.yaml
var defaultChallengesYAML []byte

// ChallengeSeed is one entry of a challenge catalog file.
type ChallengeSeed struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Type         string `yaml:"type"`
	Goal         int64  `yaml:"goal"`
	RewardPoints int64  `yaml:"rewardPoints"`
	Icon         string `yaml:"icon"`
}

// ParseChallengeSeeds decodes a YAML catalog. An empty input yields the
// embedded default catalog.
func ParseChallengeSeeds(data []byte) ([]ChallengeSeed, error) {
	if len(data) == 0 {
		data = defaultChallengesYAML
	}
	var seeds []ChallengeSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse challenge catalog: %w", err)
	}
	for i, s := range seeds {
		if s.Title == "" {
			return nil, fmt.Errorf("challenge #%d: title is required", i+1)
		}
		if !models.ChallengeType(s.Type).Valid() {
			return nil, fmt.Errorf("challenge %q: unknown type %q", s.Title, s.Type)
		}
		if s.Goal <= 0 {
			return nil, fmt.Errorf("challenge %q: goal must be positive", s.Title)
		}
	}
	return seeds, nil
}

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// Seed upserts challenges keyed by the slug of their title.
func (s *ChallengeService) Seed(ctx context.Context, seeds []ChallengeSeed) error {
	for _, seed := range seeds {
		icon := seed.Icon
		if icon == "" {
			icon = "star"
		}
		ch := models.Challenge{
			ID:           uuid.NewString(),
			Code:         slug.Make(seed.Title),
			Title:        seed.Title,
			Description:  seed.Description,
			Type:         models.ChallengeType(seed.Type),
			Goal:         seed.Goal,
			RewardPoints: seed.RewardPoints,
			Icon:         icon,
		}
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "type", "goal", "reward_points", "icon", "updated_at"}),
		}).Create(&ch).Error
		if err != nil {
			return fmt.Errorf("seed challenge %q: %w", seed.Title, err)
		}
	}
	log.Printf("✅ [CHALLENGE] Seeded %d challenge(s)", len(seeds))
	return nil
}

func (s *ChallengeService) List(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.DB.WithContext(ctx).Order("created_at ASC, code ASC").Find(&challenges).Error
	return challenges, err
}

// Join appends challengeID to the user's joined list. Joining a challenge
// that is already joined or completed fails with ErrAlreadyJoined.
func (s *ChallengeService) Join(ctx context.Context, userID, challengeID string) ([]string, error) {
	if userID == "" || challengeID == "" {
		return nil, ErrInvalidRequest
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		var ch models.Challenge
		if err := tx.Select("id").Where("id = ?", challengeID).First(&ch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}

		uc := models.UserChallenge{
			UserID:      userID,
			ChallengeID: challengeID,
			Status:      models.UserChallengeJoined,
		}
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
				DoNothing: true,
			}).
			Create(&uc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyJoined
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	joined, _, err := s.ChallengeIDs(ctx, userID)
	return joined, err
}

// ChallengeIDs returns the joined (in join order) and completed challenge ids.
func (s *ChallengeService) ChallengeIDs(ctx context.Context, userID string) (joined, completed []string, err error) {
	var rows []models.UserChallenge
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	joined, completed = []string{}, []string{}
	for _, r := range rows {
		if r.Status == models.UserChallengeCompleted {
			completed = append(completed, r.ChallengeID)
		} else {
			joined = append(joined, r.ChallengeID)
		}
	}
	return joined, completed, nil
}
