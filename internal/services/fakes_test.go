package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They hold the same integrity guarantees as the
// real stores (unique pair indexes, guarded status transitions) behind a
// mutex, so the concurrency properties of the services can be exercised
// without a database.

type fakeRequestRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.FollowRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, rows: make(map[uint]*models.FollowRequest)}
}

func (r *fakeRequestRepo) CreateRequest(req *models.FollowRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.FromID == req.FromID && row.ToID == req.ToID {
			return apperrors.Conflict(apperrors.CodeDuplicate, "a request for this pair already exists")
		}
	}
	req.ID = r.nextID
	req.CreatedAt = time.Now()
	req.Status = models.RequestPending
	r.nextID++
	cp := *req
	r.rows[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetRequestByID(id uint) (*models.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("follow request not found")
	}
	cp := *row
	return &cp, nil
}

func (r *fakeRequestRepo) GetRequestByPair(fromID, toID uint) (*models.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.FromID == fromID && row.ToID == toID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("follow request not found")
}

func (r *fakeRequestRepo) GetPendingBetween(a, b uint) (*models.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Status != models.RequestPending {
			continue
		}
		if (row.FromID == a && row.ToID == b) || (row.FromID == b && row.ToID == a) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("no pending request between users")
}

func (r *fakeRequestRepo) ListPendingFor(toID uint) ([]models.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FollowRequest
	for _, row := range r.rows {
		if row.ToID == toID && row.Status == models.RequestPending {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRequestRepo) UpdateStatusIfPending(id uint, status models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != models.RequestPending {
		return apperrors.InvalidTransition("request is not pending")
	}
	row.Status = status
	return nil
}

func (r *fakeRequestRepo) DeleteRequest(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeRequestRepo) DeletePendingBetween(a, b uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.Status != models.RequestPending {
			continue
		}
		if (row.FromID == a && row.ToID == b) || (row.FromID == b && row.ToID == a) {
			delete(r.rows, id)
		}
	}
	return nil
}

func (r *fakeRequestRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type followKey struct{ follower, following uint }

type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[followKey]time.Time
	users *fakeUserRepo
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[followKey]time.Time), users: users}
}

func (r *fakeFollowRepo) CreateFollow(follow *models.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := followKey{follow.FollowerID, follow.FollowingID}
	if _, ok := r.edges[key]; ok {
		return apperrors.Conflict(apperrors.CodeDuplicate, "follow edge already exists")
	}
	r.edges[key] = time.Now()
	return nil
}

func (r *fakeFollowRepo) DeleteFollow(followerID, followingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := followKey{followerID, followingID}
	if _, ok := r.edges[key]; !ok {
		return apperrors.NotFound("follow relationship not found")
	}
	delete(r.edges, key)
	return nil
}

func (r *fakeFollowRepo) DeleteBetween(a, b uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, followKey{a, b})
	delete(r.edges, followKey{b, a})
	return nil
}

func (r *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.edges[followKey{followerID, followingID}]
	return ok, nil
}

func (r *fakeFollowRepo) GetFollowers(userID uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for key := range r.edges {
		if key.following == userID {
			if u := r.users.lookup(key.follower); u != nil {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *fakeFollowRepo) GetFollowing(userID uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for key := range r.edges {
		if key.follower == userID {
			if u := r.users.lookup(key.following); u != nil {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *fakeFollowRepo) GetFollowersCount(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key := range r.edges {
		if key.following == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) GetFollowingCount(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key := range r.edges {
		if key.follower == userID {
			n++
		}
	}
	return n, nil
}

type blockKey struct{ blocker, blocked uint }

type fakeBlockRepo struct {
	mu     sync.Mutex
	blocks map[blockKey]time.Time
	users  *fakeUserRepo
}

func newFakeBlockRepo(users *fakeUserRepo) *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[blockKey]time.Time), users: users}
}

func (r *fakeBlockRepo) CreateBlock(block *models.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := blockKey{block.BlockerID, block.BlockedID}
	if _, ok := r.blocks[key]; ok {
		return apperrors.Conflict(apperrors.CodeDuplicate, "user is already blocked")
	}
	r.blocks[key] = time.Now()
	return nil
}

func (r *fakeBlockRepo) DeleteBlock(blockerID, blockedID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := blockKey{blockerID, blockedID}
	if _, ok := r.blocks[key]; !ok {
		return apperrors.NotFound("block not found")
	}
	delete(r.blocks, key)
	return nil
}

func (r *fakeBlockRepo) IsBlocked(blockerID, blockedID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blocks[blockKey{blockerID, blockedID}]
	return ok, nil
}

func (r *fakeBlockRepo) IsBlockedEither(a, b uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[blockKey{a, b}]; ok {
		return true, nil
	}
	_, ok := r.blocks[blockKey{b, a}]
	return ok, nil
}

func (r *fakeBlockRepo) GetBlockedUsers(blockerID uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for key := range r.blocks {
		if key.blocker == blockerID {
			if u := r.users.lookup(key.blocked); u != nil {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) lookup(id uint) *models.User {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.lookup(id); u != nil {
		return u, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *fakeUserRepo) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.FirebaseUID == firebaseUID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *fakeUserRepo) IncrementFollowersCount(userID uint) error { return r.adjust(userID, 1, false) }
func (r *fakeUserRepo) DecrementFollowersCount(userID uint) error { return r.adjust(userID, -1, false) }
func (r *fakeUserRepo) IncrementFollowingCount(userID uint) error { return r.adjust(userID, 1, true) }
func (r *fakeUserRepo) DecrementFollowingCount(userID uint) error { return r.adjust(userID, -1, true) }

func (r *fakeUserRepo) adjust(userID uint, delta int64, following bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	if following {
		u.FollowingCount += delta
	} else {
		u.FollowersCount += delta
	}
	return nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) CreateNotification(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	r.nextID++
	cp := *notification
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipientID(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			all = append(all, *n)
		}
	}
	// newest first
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.RecipientID == recipientID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.RecipientID == recipientID {
			row.IsRead = true
		}
	}
	return nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation // canonical pair key → conversation
	byID          map[string]*models.Conversation
	messages      map[string][]models.Message
	clock         time.Time
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*models.Conversation),
		byID:          make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		clock:         time.Now(),
	}
}

func (r *fakeConversationRepo) GetOrCreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	pk := convKeyString(lo, hi)
	if conv, ok := r.conversations[pk]; ok {
		cp := *conv
		return &cp, nil
	}
	now := r.tick()
	conv := &models.Conversation{
		ID:           primitive.NewObjectID(),
		PairKey:      pk,
		Participants: []uint{lo, hi},
		UnreadCounts: map[string]int64{uintKey(lo): 0, uintKey(hi): 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.conversations[pk] = conv
	r.byID[conv.ID.Hex()] = conv
	cp := *conv
	return &cp, nil
}

func (r *fakeConversationRepo) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("conversation not found")
	}
	cp := *conv
	return &cp, nil
}

func (r *fakeConversationRepo) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conv := range r.conversations {
		for _, p := range conv.Participants {
			if p == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeConversationRepo) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return apperrors.NotFound("conversation not found")
	}
	msg.ID = primitive.NewObjectID()
	msg.ConversationID = conv.ID
	msg.CreatedAt = r.tick()
	r.messages[conversationID] = append(r.messages[conversationID], *msg)
	cp := *msg
	conv.LastMessage = &cp
	conv.UpdatedAt = msg.CreatedAt
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			conv.UnreadCounts[uintKey(p)]++
		}
	}
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[conversationID]; !ok {
		return nil, apperrors.NotFound("conversation not found")
	}
	msgs := r.messages[conversationID]
	if skip > int64(len(msgs)) {
		skip = int64(len(msgs))
	}
	end := skip + limit
	if end > int64(len(msgs)) {
		end = int64(len(msgs))
	}
	out := make([]models.Message, end-skip)
	copy(out, msgs[skip:end])
	return out, nil
}

func (r *fakeConversationRepo) MarkRead(ctx context.Context, conversationID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return apperrors.NotFound("conversation not found")
	}
	conv.UnreadCounts[uintKey(userID)] = 0
	return nil
}

// tick advances the fake clock so message timestamps are strictly increasing.
func (r *fakeConversationRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *fakeConversationRepo) conversationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

func convKeyString(lo, hi uint) string {
	return uintKey(lo) + ":" + uintKey(hi)
}

func uintKey(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
