package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation and message
// data operations
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID string, userID uint) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureIndexes creates the unique pair index on conversations and the
// ordering index on messages. Called once at startup.
func (r *MongoConversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "create conversation pair index")
	}
	_, err = r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return errors.Wrap(err, "create message ordering index")
}

// pairKey canonicalizes an unordered participant pair. Sorting the ids first
// makes the key direction-insensitive, which is what the unique index hangs on.
func pairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// unreadKey is the Mongo document key for a participant's unread counter.
func unreadKey(userID uint) string {
	return fmt.Sprintf("unread_counts.%d", userID)
}

// GetOrCreateConversation returns the single conversation for the unordered
// pair, creating it on first use. The upsert against the unique pair_key
// makes concurrent calls converge on one document.
func (r *MongoConversationRepository) GetOrCreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	now := time.Now()
	filter := bson.M{"pair_key": pairKey(userA, userB)}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": []uint{lo, hi},
			"unread_counts": map[string]int64{
				fmt.Sprintf("%d", lo): 0,
				fmt.Sprintf("%d", hi): 0,
			},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conv models.Conversation
	if err := r.conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv); err != nil {
		return nil, errors.Wrap(err, "get or create conversation")
	}
	return &conv, nil
}

func (r *MongoConversationRepository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("invalid conversation ID format")
	}

	var conv models.Conversation
	err = r.conversations.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("conversation not found")
		}
		return nil, errors.Wrap(err, "get conversation")
	}
	return &conv, nil
}

// ListConversations retrieves a user's conversations, most recently active first.
func (r *MongoConversationRepository) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"participants": userID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "list conversations")
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, errors.Wrap(err, "decode conversations")
	}
	return conversations, nil
}

// AppendMessage inserts the message with a server-assigned timestamp, then
// updates the conversation's last_message and bumps the unread counter of
// every participant except the sender.
func (r *MongoConversationRepository) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	objID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return apperrors.NotFound("invalid conversation ID format")
	}

	var conv models.Conversation
	if err := r.conversations.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperrors.NotFound("conversation not found")
		}
		return errors.Wrap(err, "load conversation")
	}

	msg.ID = primitive.NewObjectID()
	msg.ConversationID = objID
	msg.CreatedAt = time.Now()
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return errors.Wrap(err, "insert message")
	}

	inc := bson.M{}
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			inc[unreadKey(p)] = 1
		}
	}
	update := bson.M{
		"$set": bson.M{"last_message": msg, "updated_at": msg.CreatedAt},
		"$inc": inc,
	}
	if _, err := r.conversations.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		return errors.Wrap(err, "update conversation after append")
	}
	return nil
}

// ListMessages retrieves messages ascending by creation time.
func (r *MongoConversationRepository) ListMessages(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error) {
	objID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, apperrors.NotFound("invalid conversation ID format")
	}

	var messages []models.Message
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.messages.Find(ctx, bson.M{"conversation_id": objID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return messages, nil
}

// MarkRead resets the caller's unread counter to zero. Other participants'
// counters are untouched.
func (r *MongoConversationRepository) MarkRead(ctx context.Context, conversationID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return apperrors.NotFound("invalid conversation ID format")
	}

	update := bson.M{"$set": bson.M{unreadKey(userID): 0}}
	res, err := r.conversations.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return errors.Wrap(err, "mark conversation read")
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("conversation not found")
	}
	return nil
}
