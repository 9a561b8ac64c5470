package services

import (
	"strconv"

	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/repositories"
	"github.com/rifat-dv/meshly/backend/pkg/logger"
)

// Decision is the recipient's answer to a pending follow request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// RelationshipView is the derived, per-viewer description of how the viewer
// relates to a subject user. Computed fresh on every call, never cached.
type RelationshipView struct {
	IsFollowing          bool  `json:"is_following"`
	IsFollowedBy         bool  `json:"is_followed_by"`
	IsFriend             bool  `json:"is_friend"`
	PendingRequestFromMe bool  `json:"pending_request_from_me"`
	PendingRequestToMe   bool  `json:"pending_request_to_me"`
	RequestID            uint  `json:"request_id,omitempty"`
	Blocked              bool  `json:"blocked"`
	BlockedBy            bool  `json:"blocked_by"`
}

// RelationshipService owns the business rules of the social graph. All
// relationship mutations go through here; the stores only enforce integrity.
type RelationshipService struct {
	requests repositories.FollowRequestRepository
	follows  repositories.FollowRepository
	blocks   repositories.BlockRepository
	users    repositories.UserRepository
	notifier *NotificationService
}

// NewRelationshipService creates a new RelationshipService
func NewRelationshipService(
	requestRepo repositories.FollowRequestRepository,
	followRepo repositories.FollowRepository,
	blockRepo repositories.BlockRepository,
	userRepo repositories.UserRepository,
	notifier *NotificationService,
) *RelationshipService {
	return &RelationshipService{
		requests: requestRepo,
		follows:  followRepo,
		blocks:   blockRepo,
		users:    userRepo,
		notifier: notifier,
	}
}

// SendFollowRequest creates a pending request from actor to target and
// notifies the target. Each failure mode carries its own error code so the
// client can render a specific message without inspecting prose.
func (s *RelationshipService) SendFollowRequest(actorID, targetID uint) (*models.FollowRequest, error) {
	if actorID == targetID {
		return nil, apperrors.SelfReferential("cannot send a request to yourself")
	}

	if _, err := s.users.GetUserByID(targetID); err != nil {
		return nil, apperrors.NotFound("target user not found")
	}

	blocked, err := s.blocks.IsBlockedEither(actorID, targetID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if blocked {
		return nil, apperrors.Conflict(apperrors.CodeBlocked, "a block exists between these users")
	}

	if pending, err := s.requests.GetPendingBetween(actorID, targetID); err == nil {
		if pending.FromID == actorID {
			return nil, apperrors.Conflict(apperrors.CodeRequestPending, "you already sent a request to this user")
		}
		return nil, apperrors.Conflict(apperrors.CodeReciprocalPending, "this user already sent you a request")
	} else if apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, apperrors.Internal(err)
	}

	following, err := s.follows.IsFollowing(actorID, targetID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if following {
		return nil, apperrors.Conflict(apperrors.CodeAlreadyConnected, "you are already following this user")
	}

	req := &models.FollowRequest{FromID: actorID, ToID: targetID}
	if err := s.requests.CreateRequest(req); err != nil {
		// A concurrent send of the same pair loses the race on the unique
		// index; surface it the same way as the pre-check.
		if apperrors.KindOf(err) == apperrors.KindConflict {
			return nil, apperrors.Conflict(apperrors.CodeRequestPending, "you already sent a request to this user")
		}
		return nil, apperrors.Internal(err)
	}

	s.notifier.Emit(models.NotificationFriendRequest, actorID, targetID,
		strconv.FormatUint(uint64(req.ID), 10), "request")
	return req, nil
}

// Respond accepts or rejects a pending request. Only the recipient may
// respond, and exactly one responder wins: the status transition is guarded
// at the store, so the loser of a concurrent accept/reject observes
// InvalidTransition (or NotFound once the winner has deleted the row).
// Either decision removes the request row; accepted pairs live on as a
// follow edge, so the pair is always free to request again after the
// relationship ends.
func (s *RelationshipService) Respond(actorID, requestID uint, decision Decision) (*models.FollowRequest, error) {
	req, err := s.requests.GetRequestByID(requestID)
	if err != nil {
		return nil, err
	}
	if req.ToID != actorID {
		return nil, apperrors.Forbidden("only the recipient can respond to this request")
	}

	switch decision {
	case DecisionAccept:
		if err := s.requests.UpdateStatusIfPending(requestID, models.RequestAccepted); err != nil {
			return nil, err
		}
		req.Status = models.RequestAccepted

		if err := s.follows.CreateFollow(&models.Follow{FollowerID: req.FromID, FollowingID: req.ToID}); err != nil {
			if apperrors.KindOf(err) != apperrors.KindConflict {
				return nil, apperrors.Internal(err)
			}
		} else {
			logCountErr(s.users.IncrementFollowingCount(req.FromID), req.FromID)
			logCountErr(s.users.IncrementFollowersCount(req.ToID), req.ToID)
		}

		// The follow edge is now the durable record. Drop the request row so
		// the unique pair index cannot refuse a fresh request after a later
		// unfollow, removal, or block.
		if err := s.requests.DeleteRequest(requestID); err != nil {
			logger.Log.WithError(err).WithField("request_id", requestID).Warn("failed to delete accepted request")
		}

		s.notifier.Emit(models.NotificationFollowAccept, actorID, req.FromID,
			strconv.FormatUint(uint64(req.ID), 10), "request")

	case DecisionReject:
		if err := s.requests.UpdateStatusIfPending(requestID, models.RequestRejected); err != nil {
			return nil, err
		}
		req.Status = models.RequestRejected

		// Rejected requests are deleted rather than retained, so the sender
		// may re-request immediately.
		if err := s.requests.DeleteRequest(requestID); err != nil {
			logger.Log.WithError(err).WithField("request_id", requestID).Warn("failed to delete rejected request")
		}

	default:
		return nil, apperrors.InvalidTransition("unknown decision")
	}

	return req, nil
}

// CancelRequest lets the sender withdraw their own pending request. No
// notification is produced.
func (s *RelationshipService) CancelRequest(actorID, requestID uint) error {
	req, err := s.requests.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	if req.FromID != actorID {
		return apperrors.Forbidden("only the sender can cancel this request")
	}
	if req.Status != models.RequestPending {
		return apperrors.InvalidTransition("request is not pending")
	}
	return s.requests.DeleteRequest(requestID)
}

// RemoveFollower deletes the follower→owner edge. Owner-only; the removed
// party is not notified.
func (s *RelationshipService) RemoveFollower(ownerID, followerID uint) error {
	if err := s.follows.DeleteFollow(followerID, ownerID); err != nil {
		return err
	}
	logCountErr(s.users.DecrementFollowingCount(followerID), followerID)
	logCountErr(s.users.DecrementFollowersCount(ownerID), ownerID)
	return nil
}

// Unfollow deletes the actor→target edge.
func (s *RelationshipService) Unfollow(actorID, targetID uint) error {
	if err := s.follows.DeleteFollow(actorID, targetID); err != nil {
		return err
	}
	logCountErr(s.users.DecrementFollowingCount(actorID), actorID)
	logCountErr(s.users.DecrementFollowersCount(targetID), targetID)
	return nil
}

// Block suppresses all interaction between actor and target. Any pending
// request between the pair is cancelled and existing follow edges are hard
// deleted in both directions; unblock resurrects none of it.
func (s *RelationshipService) Block(actorID, targetID uint) error {
	if actorID == targetID {
		return apperrors.SelfReferential("cannot block yourself")
	}
	if _, err := s.users.GetUserByID(targetID); err != nil {
		return apperrors.NotFound("target user not found")
	}

	if err := s.blocks.CreateBlock(&models.Block{BlockerID: actorID, BlockedID: targetID}); err != nil {
		return err
	}

	if err := s.requests.DeletePendingBetween(actorID, targetID); err != nil {
		logger.Log.WithError(err).Warn("block cascade: failed to delete pending requests")
	}

	// Adjust denormalized counts before tearing down the edges.
	if following, err := s.follows.IsFollowing(actorID, targetID); err == nil && following {
		logCountErr(s.users.DecrementFollowingCount(actorID), actorID)
		logCountErr(s.users.DecrementFollowersCount(targetID), targetID)
	}
	if following, err := s.follows.IsFollowing(targetID, actorID); err == nil && following {
		logCountErr(s.users.DecrementFollowingCount(targetID), targetID)
		logCountErr(s.users.DecrementFollowersCount(actorID), actorID)
	}
	if err := s.follows.DeleteBetween(actorID, targetID); err != nil {
		logger.Log.WithError(err).Warn("block cascade: failed to delete follow edges")
	}

	return nil
}

// Unblock removes the actor's block against target.
func (s *RelationshipService) Unblock(actorID, targetID uint) error {
	return s.blocks.DeleteBlock(actorID, targetID)
}

// GetRelationshipView computes the viewer's relationship to the subject from
// the latest committed state. When a block exists in either direction only
// the block flags are populated; nothing else about the subject leaks.
func (s *RelationshipService) GetRelationshipView(viewerID, subjectID uint) (*RelationshipView, error) {
	view := &RelationshipView{}

	blocked, err := s.blocks.IsBlocked(viewerID, subjectID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	blockedBy, err := s.blocks.IsBlocked(subjectID, viewerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	view.Blocked = blocked
	view.BlockedBy = blockedBy
	if blocked || blockedBy {
		return view, nil
	}

	if view.IsFollowing, err = s.follows.IsFollowing(viewerID, subjectID); err != nil {
		return nil, apperrors.Internal(err)
	}
	if view.IsFollowedBy, err = s.follows.IsFollowing(subjectID, viewerID); err != nil {
		return nil, apperrors.Internal(err)
	}
	view.IsFriend = view.IsFollowing && view.IsFollowedBy

	if req, err := s.requests.GetPendingBetween(viewerID, subjectID); err == nil {
		view.RequestID = req.ID
		if req.FromID == viewerID {
			view.PendingRequestFromMe = true
		} else {
			view.PendingRequestToMe = true
		}
	} else if apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, apperrors.Internal(err)
	}

	return view, nil
}

// logCountErr records a failed denormalized counter adjustment. The edge
// mutation already committed, so the counter drifts until reconciled.
func logCountErr(err error, userID uint) {
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("failed to adjust follow count")
	}
}

// ListPendingRequests returns the pending requests directed at a user.
func (s *RelationshipService) ListPendingRequests(userID uint) ([]models.FollowRequest, error) {
	return s.requests.ListPendingFor(userID)
}

// ListFollowers returns the users following userID.
func (s *RelationshipService) ListFollowers(userID uint) ([]models.User, error) {
	return s.follows.GetFollowers(userID)
}

// ListFollowing returns the users userID follows.
func (s *RelationshipService) ListFollowing(userID uint) ([]models.User, error) {
	return s.follows.GetFollowing(userID)
}

// ListBlocked returns the users the actor has blocked.
func (s *RelationshipService) ListBlocked(actorID uint) ([]models.User, error) {
	return s.blocks.GetBlockedUsers(actorID)
}
