package models

// ChallengeType is either a Category (count ledger entries of that category)
// or one of the aggregate types below.
type ChallengeType string

const (
	ChallengeTotalItems ChallengeType = "total_items"
	ChallengePoints     ChallengeType = "points"
)

func (t ChallengeType) Valid() bool {
	if t == ChallengeTotalItems || t == ChallengePoints {
		return true
	}
	return Category(t).Valid()
}

// Category returns the material a category-specific challenge counts.
func (t ChallengeType) Category() (Category, bool) {
	c := Category(t)
	return c, c.Valid()
}

type Challenge struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code         string        `gorm:"uniqueIndex;not null" json:"code"` // slug of Title, e.g. "plastic-pro"
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"not null" json:"description"`
	Type         ChallengeType `gorm:"type:varchar(32);not null" json:"type"`
	Goal         int64         `gorm:"not null;check:goal > 0" json:"goal"`
	RewardPoints int64         `gorm:"not null;default:0" json:"rewardPoints"`
	Icon         string        `gorm:"default:'star'" json:"icon"`

	Timestamps
}
