package models

import "time"

// Follow represents an accepted, directional follow edge. It is created when
// a FollowRequest is accepted and deleted on unfollow, remove-follower or
// block. The unique index keeps the edge single per ordered pair.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
