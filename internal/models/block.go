package models

import "time"

// Block is a directional suppression record. Storage keeps it directional;
// the service layer interprets it bidirectionally for visibility, so either
// side of a block is invisible to the other.
type Block struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"index;uniqueIndex:idx_blocker_blocked"`
	BlockedID uint      `json:"blocked_id" gorm:"index;uniqueIndex:idx_blocker_blocked"`
	CreatedAt time.Time `json:"created_at"`
}
