package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is the durable two-party container for messages (MongoDB).
// Identity is the unordered participant pair; PairKey is the canonical
// "lowID:highID" form backed by a unique index, so exactly one conversation
// can exist per pair.
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PairKey      string             `json:"-" bson:"pair_key"`
	Participants []uint             `json:"participants" bson:"participants"`
	LastMessage  *Message           `json:"last_message,omitempty" bson:"last_message,omitempty"`
	// UnreadCounts maps the decimal participant id to their unread counter.
	// Mongo document keys must be strings.
	UnreadCounts map[string]int64 `json:"unread_counts" bson:"unread_counts"`
	CreatedAt    time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" bson:"updated_at"`
}

// Message is a single chat message. Immutable once created; ordering is by
// the server-assigned CreatedAt within one conversation.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	Text           string             `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL       string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// CreateConversationRequest defines the request body for opening a conversation
type CreateConversationRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Text           string `json:"text"`
	ImageURL       string `json:"image_url"`
}
