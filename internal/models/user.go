package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model     `json:"-"`
	ID             uint   `json:"id" gorm:"primaryKey"`
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	AvatarURL      string `json:"avatar_url"`
	Password       string `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID    string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	FollowersCount int64  `json:"followers_count" gorm:"default:0"`
	FollowingCount int64  `json:"following_count" gorm:"default:0"`
}

// UserCompact is the trimmed-down user representation embedded in
// notification and relationship payloads.
type UserCompact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
