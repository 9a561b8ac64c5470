package services

import (
	"fmt"

	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/realtime"
	"github.com/rifat-dv/meshly/backend/internal/repositories"
	"github.com/rifat-dv/meshly/backend/pkg/logger"
)

// NotificationService creates notification records as a synchronous side
// effect of relationship and content events and pushes them over the
// realtime channel. Records are never inferred retroactively.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	hub           *realtime.Hub
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, hub *realtime.Hub) *NotificationService {
	return &NotificationService{
		notifications: notifRepo,
		users:         userRepo,
		hub:           hub,
	}
}

// EnrichedNotification includes actor info for list rendering.
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

// Emit records a notification and pushes it to the recipient's active
// connections. Self-notifications are silently skipped. Emission failures
// are logged, not propagated: the triggering action already succeeded.
func (s *NotificationService) Emit(notifType string, actorID, recipientID uint, targetID, targetType string) {
	if actorID == recipientID {
		return
	}

	actor, err := s.users.GetUserByID(actorID)
	if err != nil {
		logger.Log.WithError(err).WithField("actor_id", actorID).Warn("notification actor lookup failed")
		return
	}

	notif := &models.Notification{
		Type:        notifType,
		ActorID:     actorID,
		RecipientID: recipientID,
		TargetID:    targetID,
		TargetType:  targetType,
		Message:     notificationMessage(notifType, actor),
	}
	if err := s.notifications.CreateNotification(notif); err != nil {
		logger.Log.WithError(err).WithField("type", notifType).Error("failed to create notification")
		return
	}

	s.hub.Push(realtime.Event{
		Type: realtime.EventNotification,
		Payload: EnrichedNotification{
			Notification: *notif,
			Actor:        actor.ToCompact(),
		},
	}, recipientID)
}

func notificationMessage(notifType string, actor *models.User) string {
	name := actor.DisplayName
	if name == "" {
		name = actor.Name
	}
	switch notifType {
	case models.NotificationFriendRequest:
		return name + " sent you a friend request"
	case models.NotificationFollow:
		return name + " started following you"
	case models.NotificationFollowAccept:
		return name + " accepted your request"
	case models.NotificationLike:
		return name + " liked your post"
	case models.NotificationComment:
		return name + " commented on your post"
	default:
		return fmt.Sprintf("%s sent you a %s notification", name, notifType)
	}
}

// List returns the recipient's notifications, most recent first, with actor
// details attached.
func (s *NotificationService) List(recipientID uint, page, limit int) ([]EnrichedNotification, int64, error) {
	notifications, total, err := s.notifications.GetByRecipientID(recipientID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]models.UserCompact)
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := userCache[n.ActorID]; ok {
			enriched[i].Actor = actor
		} else if user, err := s.users.GetUserByID(n.ActorID); err == nil {
			compact := user.ToCompact()
			userCache[n.ActorID] = compact
			enriched[i].Actor = compact
		}
	}
	return enriched, total, nil
}

// UnreadCount returns the number of unread notifications for a recipient.
func (s *NotificationService) UnreadCount(recipientID uint) (int64, error) {
	return s.notifications.GetUnreadCount(recipientID)
}

// MarkAllRead marks every unread notification read. Idempotent; the client
// calls it on its own "seen" heuristic after rendering the list.
func (s *NotificationService) MarkAllRead(recipientID uint) error {
	return s.notifications.MarkAllAsRead(recipientID)
}
