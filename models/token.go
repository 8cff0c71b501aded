// models/token.go
package models

import "time"

type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusClaimed TokenStatus = "claimed"
	TokenStatusExpired TokenStatus = "expired"
)

// Token is a single-use credential for one recycled item.
// ClaimedBy is set if and only if Status is TokenStatusClaimed.
type Token struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Category   Category    `gorm:"type:varchar(32);not null" json:"category"`
	PointValue int         `gorm:"not null;default:10;check:point_value >= 0" json:"pointValue"`
	Status     TokenStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	ClaimedBy  *string     `gorm:"type:varchar(64);index" json:"claimedBy,omitempty"`
	ClaimedAt  *time.Time  `json:"claimedAt,omitempty"`
	CreatedAt  time.Time   `gorm:"not null" json:"createdAt"`
	ExpiresAt  time.Time   `gorm:"not null;index" json:"expiresAt"`
}
