package repositories

import (
	"github.com/pkg/errors"
	"github.com/rifat-dv/meshly/backend/internal/apperrors"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"gorm.io/gorm"
)

// BlockRepository defines the interface for block data operations
type BlockRepository interface {
	CreateBlock(block *models.Block) error
	DeleteBlock(blockerID, blockedID uint) error
	IsBlocked(blockerID, blockedID uint) (bool, error)
	IsBlockedEither(a, b uint) (bool, error)
	GetBlockedUsers(blockerID uint) ([]models.User, error)
}

// PostgresBlockRepository implements BlockRepository for PostgreSQL
type PostgresBlockRepository struct {
	db *gorm.DB
}

// NewPostgresBlockRepository creates a new PostgresBlockRepository
func NewPostgresBlockRepository(db *gorm.DB) *PostgresBlockRepository {
	return &PostgresBlockRepository{db: db}
}

func (r *PostgresBlockRepository) CreateBlock(block *models.Block) error {
	if err := r.db.Create(block).Error; err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.Conflict(apperrors.CodeDuplicate, "user is already blocked")
		}
		return errors.Wrap(err, "create block")
	}
	return nil
}

func (r *PostgresBlockRepository) DeleteBlock(blockerID, blockedID uint) error {
	res := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.Block{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete block")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("block not found")
	}
	return nil
}

// IsBlocked reports whether blockerID has a block record against blockedID.
func (r *PostgresBlockRepository) IsBlocked(blockerID, blockedID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count blocks")
	}
	return count > 0, nil
}

// IsBlockedEither reports whether a block exists between a and b in either
// direction. Visibility rules treat the block as bidirectional.
func (r *PostgresBlockRepository) IsBlockedEither(a, b uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count blocks")
	}
	return count > 0, nil
}

func (r *PostgresBlockRepository) GetBlockedUsers(blockerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN (?)",
		r.db.Table("blocks").Select("blocked_id").Where("blocker_id = ?", blockerID),
	).Find(&users).Error
	return users, err
}
