package models

import "time"

// RecycleLog is the append-only ledger entry written once per successful claim.
// TokenID is unique and acts as the crediting idempotency key.
type RecycleLog struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;index:idx_recycle_user_category" json:"userId"`
	Category     Category  `gorm:"type:varchar(32);not null;index:idx_recycle_user_category" json:"wasteType"`
	TokenID      string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"tokenId"`
	PointsEarned int       `gorm:"not null" json:"pointsEarned"`
	ScannedAt    time.Time `gorm:"not null;index" json:"scannedAt"`
}
