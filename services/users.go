// services/users.go
package services

import (
	"context"
	"errors"
	"strings"

	"recycle-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultLeaderboardSize = 10

type UserService struct {
	DB         *gorm.DB
	Challenges *ChallengeService
}

func NewUserService(db *gorm.DB, challenges *ChallengeService) *UserService {
	return &UserService{DB: db, Challenges: challenges}
}

// Get loads a user together with the joined/completed challenge lists.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	joined, completed, err := s.Challenges.ChallengeIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	user.JoinedChallenges = joined
	user.CompletedChallenges = completed
	return &user, nil
}

// LeaderboardEntry is the public slice of a user shown on the leaderboard.
type LeaderboardEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Points        int64  `json:"points"`
	TotalRecycled int64  `json:"totalRecycled"`
}

func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardSize
	}
	var entries []LeaderboardEntry
	err := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "points", "total_recycled").
		Order("points DESC, id ASC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// Register creates a local account mirror. In production accounts arrive
// through the sync worker; this covers development without an account service.
func (s *UserService) Register(ctx context.Context, id, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidRequest
	}
	if id == "" {
		id = uuid.NewString()
	}
	user := models.User{ID: id, Name: name, Email: strings.TrimSpace(email)}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserExists
	}
	user.JoinedChallenges = []string{}
	user.CompletedChallenges = []string{}
	return &user, nil
}
