package safety

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateBlock(block *Block) error
	DeleteBlock(blockerID, blockedID uuid.UUID) (bool, error)
	IsBlockedEitherWay(a, b uuid.UUID) (bool, error)
	GetBlockedIDs(blockerID uuid.UUID) ([]uuid.UUID, error)
	CreateReport(report *Report) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var ErrAlreadyBlocked = errors.New("user is already blocked")

func (r *repository) CreateBlock(block *Block) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	err := r.db.Create(block).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyBlocked
	}
	return err
}

func (r *repository) DeleteBlock(blockerID, blockedID uuid.UUID) (bool, error) {
	result := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&Block{})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) IsBlockedEitherWay(a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) GetBlockedIDs(blockerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&Block{}).
		Where("blocker_id = ?", blockerID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

func (r *repository) CreateReport(report *Report) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	return r.db.Create(report).Error
}
