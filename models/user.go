package models

import "time"

// User is the local mirror of an account owned by the account service.
// Points and TotalRecycled are written only by the claim path.
type User struct {
	ID            string `gorm:"primaryKey;type:varchar(64)" json:"id"` // account service user id
	Name          string `gorm:"not null;default:''" json:"name"`
	Email         string `gorm:"index" json:"email,omitempty"`
	Points        int64  `gorm:"not null;default:0;index" json:"points"`
	TotalRecycled int64  `gorm:"not null;default:0" json:"totalRecycled"`

	// Filled from user_challenges on read, never stored on this row
	JoinedChallenges    []string `gorm:"-" json:"joinedChallenges"`
	CompletedChallenges []string `gorm:"-" json:"completedChallenges"`

	Timestamps
}

type UserChallengeStatus string

const (
	UserChallengeJoined    UserChallengeStatus = "joined"
	UserChallengeCompleted UserChallengeStatus = "completed"
)

// UserChallenge links a user to a challenge. The auto-increment ID is the
// joined-list insertion order used by challenge evaluation.
type UserChallenge struct {
	ID          uint                `gorm:"primaryKey;autoIncrement" json:"seq"`
	UserID      string              `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_challenge" json:"userId"`
	ChallengeID string              `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_challenge" json:"challengeId"`
	Status      UserChallengeStatus `gorm:"type:varchar(16);not null;default:'joined';index" json:"status"`
	JoinedAt    time.Time           `gorm:"autoCreateTime" json:"joinedAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`

	Challenge Challenge `gorm:"foreignKey:ChallengeID" json:"challenge"`
}
