package services

import (
	"context"

	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/realtime"
	"github.com/rifat-dv/meshly/backend/internal/repositories"
)

// NewMessageEvent is the payload of a new_message realtime event.
type NewMessageEvent struct {
	ConversationID string         `json:"conversation_id"`
	Message        models.Message `json:"message"`
}

// ChatService owns the business rules of one-to-one messaging: participant
// authorization, blocked-pair refusal, and realtime fan-out.
type ChatService struct {
	conversations repositories.ConversationRepository
	blocks        repositories.BlockRepository
	users         repositories.UserRepository
	hub           *realtime.Hub
}

// NewChatService creates a new ChatService
func NewChatService(
	convRepo repositories.ConversationRepository,
	blockRepo repositories.BlockRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
) *ChatService {
	return &ChatService{
		conversations: convRepo,
		blocks:        blockRepo,
		users:         userRepo,
		hub:           hub,
	}
}

// GetOrCreateConversation returns the single conversation between actor and
// other, creating it on first contact. Idempotent per unordered pair.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, actorID, otherID uint) (*models.Conversation, error) {
	if actorID == otherID {
		return nil, apperrors.SelfReferential("cannot open a conversation with yourself")
	}
	if _, err := s.users.GetUserByID(otherID); err != nil {
		return nil, apperrors.NotFound("user not found")
	}

	blocked, err := s.blocks.IsBlockedEither(actorID, otherID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if blocked {
		return nil, apperrors.Conflict(apperrors.CodeBlocked, "a block exists between these users")
	}

	return s.conversations.GetOrCreateConversation(ctx, actorID, otherID)
}

// ListConversations returns the actor's conversations, most recently active
// first.
func (s *ChatService) ListConversations(ctx context.Context, actorID uint) ([]models.Conversation, error) {
	return s.conversations.ListConversations(ctx, actorID)
}

// SendMessage appends a message and fans it out to every connection of both
// participants. The store assigns the timestamp; the other participant's
// unread counter is incremented, the sender's is untouched.
func (s *ChatService) SendMessage(ctx context.Context, actorID uint, conversationID, text, imageURL string) (*models.Message, error) {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(conv, actorID) {
		return nil, apperrors.Forbidden("you are not a participant of this conversation")
	}

	other := otherParticipant(conv, actorID)
	blocked, err := s.blocks.IsBlockedEither(actorID, other)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if blocked {
		return nil, apperrors.Conflict(apperrors.CodeBlocked, "a block exists between these users")
	}

	msg := &models.Message{
		SenderID: actorID,
		Text:     text,
		ImageURL: imageURL,
	}
	if err := s.conversations.AppendMessage(ctx, conversationID, msg); err != nil {
		return nil, err
	}

	s.hub.Push(realtime.Event{
		Type: realtime.EventNewMessage,
		Payload: NewMessageEvent{
			ConversationID: conversationID,
			Message:        *msg,
		},
	}, conv.Participants...)

	return msg, nil
}

// ListMessages returns a conversation's messages ascending by time.
// Participant-only.
func (s *ChatService) ListMessages(ctx context.Context, actorID uint, conversationID string, skip, limit int64) ([]models.Message, error) {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(conv, actorID) {
		return nil, apperrors.Forbidden("you are not a participant of this conversation")
	}
	return s.conversations.ListMessages(ctx, conversationID, skip, limit)
}

// MarkRead resets the actor's unread counter for the conversation.
func (s *ChatService) MarkRead(ctx context.Context, actorID uint, conversationID string) error {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !isParticipant(conv, actorID) {
		return apperrors.Forbidden("you are not a participant of this conversation")
	}
	return s.conversations.MarkRead(ctx, conversationID, actorID)
}

func isParticipant(conv *models.Conversation, userID uint) bool {
	for _, p := range conv.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func otherParticipant(conv *models.Conversation, userID uint) uint {
	for _, p := range conv.Participants {
		if p != userID {
			return p
		}
	}
	return userID
}
