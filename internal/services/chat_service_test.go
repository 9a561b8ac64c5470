package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateConversationIdempotent(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	first, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)

	// Same pair in the opposite order resolves to the same conversation.
	second, err := env.chat.GetOrCreateConversation(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, env.conversations.conversationCount())
}

func TestGetOrCreateConversationConcurrent(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	const workers = 16
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		a, b := uint(1), uint(2)
		if i%2 == 1 {
			a, b = b, a
		}
		wg.Add(1)
		go func(x, y uint) {
			defer wg.Done()
			conv, err := env.chat.GetOrCreateConversation(ctx, x, y)
			if err != nil {
				t.Error(err)
				return
			}
			ids <- conv.ID.Hex()
		}(a, b)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1, "every call must return the same conversation")
	assert.Equal(t, 1, env.conversations.conversationCount())
}

func TestGetOrCreateConversationRejections(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	_, err := env.chat.GetOrCreateConversation(ctx, 1, 1)
	assert.Equal(t, apperrors.KindSelfReferential, apperrors.KindOf(err))

	_, err = env.chat.GetOrCreateConversation(ctx, 1, 99)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	require.NoError(t, env.relationships.Block(2, 1))
	_, err = env.chat.GetOrCreateConversation(ctx, 1, 2)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, apperrors.CodeBlocked, apperrors.CodeOf(err))
}

func TestSendMessageUpdatesOnlyOtherUnread(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	conv, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)
	convID := conv.ID.Hex()

	_, err = env.chat.SendMessage(ctx, 1, convID, "hello", "")
	require.NoError(t, err)

	reloaded, err := env.conversations.GetConversationByID(ctx, convID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.UnreadCounts["2"], "recipient unread incremented")
	assert.EqualValues(t, 0, reloaded.UnreadCounts["1"], "sender unread unchanged")
	require.NotNil(t, reloaded.LastMessage)
	assert.Equal(t, "hello", reloaded.LastMessage.Text)

	// Mark-read resets only the caller's counter.
	_, err = env.chat.SendMessage(ctx, 2, convID, "hey", "")
	require.NoError(t, err)
	require.NoError(t, env.chat.MarkRead(ctx, 2, convID))

	reloaded, err = env.conversations.GetConversationByID(ctx, convID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.UnreadCounts["2"])
	assert.EqualValues(t, 1, reloaded.UnreadCounts["1"])
}

func TestSendMessageNonParticipant(t *testing.T) {
	env := newTestEnv(alice(), bob(), carol())
	ctx := context.Background()

	conv, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)

	_, err = env.chat.SendMessage(ctx, 3, conv.ID.Hex(), "intruding", "")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = env.chat.ListMessages(ctx, 3, conv.ID.Hex(), 0, 50)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	err = env.chat.MarkRead(ctx, 3, conv.ID.Hex())
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestSendMessageBlockedPair(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	conv, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, env.relationships.Block(1, 2))

	_, err = env.chat.SendMessage(ctx, 2, conv.ID.Hex(), "still there?", "")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, apperrors.CodeBlocked, apperrors.CodeOf(err))
}

func TestMessagesOrderedAscending(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	conv, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)
	convID := conv.ID.Hex()

	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		sender := uint(1)
		if i%2 == 1 {
			sender = 2
		}
		_, err := env.chat.SendMessage(ctx, sender, convID, text, "")
		require.NoError(t, err)
	}

	messages, err := env.chat.ListMessages(ctx, 1, convID, 0, 50)
	require.NoError(t, err)
	require.Len(t, messages, len(texts))
	for i, msg := range messages {
		assert.Equal(t, texts[i], msg.Text)
		if i > 0 {
			assert.False(t, msg.CreatedAt.Before(messages[i-1].CreatedAt),
				"timestamps must be monotonically non-decreasing")
		}
	}
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	env := newTestEnv(alice(), bob(), carol())
	ctx := context.Background()

	withBob, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)
	withCarol, err := env.chat.GetOrCreateConversation(ctx, 1, 3)
	require.NoError(t, err)

	_, err = env.chat.SendMessage(ctx, 1, withBob.ID.Hex(), "later message", "")
	require.NoError(t, err)

	conversations, err := env.chat.ListConversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, withBob.ID, conversations[0].ID)
	assert.Equal(t, withCarol.ID, conversations[1].ID)
}

// Full walkthrough of the request → accept → chat → mark-read flow.
func TestRelationshipToChatScenario(t *testing.T) {
	env := newTestEnv(alice(), bob())
	ctx := context.Background()

	req, err := env.relationships.SendFollowRequest(1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	accepted, err := env.relationships.Respond(2, req.ID, DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, accepted.Status)

	followers, err := env.relationships.ListFollowers(2)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Name)

	conv, err := env.chat.GetOrCreateConversation(ctx, 1, 2)
	require.NoError(t, err)

	_, err = env.chat.SendMessage(ctx, 1, conv.ID.Hex(), "hi", "")
	require.NoError(t, err)

	reloaded, err := env.conversations.GetConversationByID(ctx, conv.ID.Hex())
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.UnreadCounts["2"])

	require.NoError(t, env.chat.MarkRead(ctx, 2, conv.ID.Hex()))
	reloaded, err = env.conversations.GetConversationByID(ctx, conv.ID.Hex())
	require.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.UnreadCounts["2"])
}
