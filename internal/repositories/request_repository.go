package repositories

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRequestRepository defines the interface for follow request data
// operations. Only integrity errors (Conflict, NotFound, InvalidTransition)
// originate here; business rules live in the service layer.
type FollowRequestRepository interface {
	CreateRequest(req *models.FollowRequest) error
	GetRequestByID(id uint) (*models.FollowRequest, error)
	GetRequestByPair(fromID, toID uint) (*models.FollowRequest, error)
	GetPendingBetween(a, b uint) (*models.FollowRequest, error)
	ListPendingFor(toID uint) ([]models.FollowRequest, error)
	UpdateStatusIfPending(id uint, status models.RequestStatus) error
	DeleteRequest(id uint) error
	DeletePendingBetween(a, b uint) error
}

// PostgresFollowRequestRepository implements FollowRequestRepository for PostgreSQL
type PostgresFollowRequestRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRequestRepository creates a new PostgresFollowRequestRepository
func NewPostgresFollowRequestRepository(db *gorm.DB) *PostgresFollowRequestRepository {
	return &PostgresFollowRequestRepository{db: db}
}

// CreateRequest inserts a new pending request. The unique index on
// (from_id, to_id) turns a duplicate insert into a Conflict.
func (r *PostgresFollowRequestRepository) CreateRequest(req *models.FollowRequest) error {
	req.Status = models.RequestPending
	if err := r.db.Create(req).Error; err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.Conflict(apperrors.CodeDuplicate, "a request for this pair already exists")
		}
		return errors.Wrap(err, "create follow request")
	}
	return nil
}

func (r *PostgresFollowRequestRepository) GetRequestByID(id uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := r.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("follow request not found")
		}
		return nil, errors.Wrap(err, "get follow request")
	}
	return &req, nil
}

func (r *PostgresFollowRequestRepository) GetRequestByPair(fromID, toID uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := r.db.Where("from_id = ? AND to_id = ?", fromID, toID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("follow request not found")
		}
		return nil, errors.Wrap(err, "get follow request by pair")
	}
	return &req, nil
}

// GetPendingBetween returns the pending request between a and b in either
// direction, or NotFound.
func (r *PostgresFollowRequestRepository) GetPendingBetween(a, b uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := r.db.Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND status = ?",
		a, b, b, a, models.RequestPending).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no pending request between users")
		}
		return nil, errors.Wrap(err, "get pending request between users")
	}
	return &req, nil
}

// ListPendingFor retrieves all pending requests directed at a user, newest first.
func (r *PostgresFollowRequestRepository) ListPendingFor(toID uint) ([]models.FollowRequest, error) {
	var requests []models.FollowRequest
	err := r.db.Where("to_id = ? AND status = ?", toID, models.RequestPending).
		Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, errors.Wrap(err, "list pending requests")
	}
	return requests, nil
}

// UpdateStatusIfPending transitions a request out of pending. The guarded
// WHERE clause serializes concurrent responders: the loser updates zero rows
// and gets InvalidTransition.
func (r *PostgresFollowRequestRepository) UpdateStatusIfPending(id uint, status models.RequestStatus) error {
	res := r.db.Model(&models.FollowRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update request status")
	}
	if res.RowsAffected == 0 {
		return apperrors.InvalidTransition("request is not pending")
	}
	return nil
}

func (r *PostgresFollowRequestRepository) DeleteRequest(id uint) error {
	return r.db.Unscoped().Delete(&models.FollowRequest{}, id).Error
}

// DeletePendingBetween removes any pending request between a and b in either
// direction. Used by the block cascade; deleting nothing is not an error.
func (r *PostgresFollowRequestRepository) DeletePendingBetween(a, b uint) error {
	return r.db.Unscoped().
		Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND status = ?",
			a, b, b, a, models.RequestPending).
		Delete(&models.FollowRequest{}).Error
}

// isDuplicateKeyError reports whether err is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique violations
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
