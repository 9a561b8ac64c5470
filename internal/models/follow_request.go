package models

import "gorm.io/gorm"

// RequestStatus is the lifecycle state of a FollowRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// FollowRequest represents a follow/friend request between two users.
// At most one request may exist per ordered (from, to) pair.
type FollowRequest struct {
	gorm.Model
	FromID uint          `json:"from_id" gorm:"index;uniqueIndex:idx_request_from_to"`
	ToID   uint          `json:"to_id" gorm:"index:idx_request_to_status;uniqueIndex:idx_request_from_to"`
	Status RequestStatus `json:"status" gorm:"type:varchar(20);default:'pending';index:idx_request_to_status"`
}

// CreateFollowRequest defines the request body for sending a follow request
type CreateFollowRequest struct {
	To uint `json:"to" validate:"required"`
}

// RespondFollowRequest defines the request body for accepting/rejecting a request
type RespondFollowRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
}
