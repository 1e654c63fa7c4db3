package spark

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetReaction(reactorID, targetID uuid.UUID) (*ProfileReaction, error)
	UpsertReaction(reactorID, targetID uuid.UUID, emoji string) (*ProfileReaction, error)
	DeleteReaction(reactorID, targetID uuid.UUID) (bool, error)
	HasMutualSpark(a, b uuid.UUID) (bool, error)
	ListByReactor(reactorID uuid.UUID) ([]*ProfileReaction, error)
	ListByTarget(targetID uuid.UUID) ([]*ProfileReaction, error)

	IncrementQuota(userID uuid.UUID, date string) error
	DecrementQuota(userID uuid.UUID, date string) (bool, error)
	GetQuotaCount(userID uuid.UUID, date string) (int, error)
	PruneQuotaBefore(date string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetReaction(reactorID, targetID uuid.UUID) (*ProfileReaction, error) {
	var reaction ProfileReaction
	err := r.db.Where("reactor_id = ? AND target_id = ?", reactorID, targetID).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *repository) UpsertReaction(reactorID, targetID uuid.UUID, emoji string) (*ProfileReaction, error) {
	err := r.db.Exec(`
		INSERT INTO profile_reactions (id, reactor_id, target_id, emoji, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())
		ON CONFLICT (reactor_id, target_id) DO UPDATE SET
			emoji = EXCLUDED.emoji,
			updated_at = NOW()
	`, uuid.New(), reactorID, targetID, emoji).Error
	if err != nil {
		return nil, err
	}
	return r.GetReaction(reactorID, targetID)
}

func (r *repository) DeleteReaction(reactorID, targetID uuid.UUID) (bool, error) {
	result := r.db.Where("reactor_id = ? AND target_id = ?", reactorID, targetID).
		Delete(&ProfileReaction{})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) HasMutualSpark(a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&ProfileReaction{}).
		Where("(reactor_id = ? AND target_id = ?) OR (reactor_id = ? AND target_id = ?)", a, b, b, a).
		Count(&count).Error
	return count == 2, err
}

func (r *repository) ListByReactor(reactorID uuid.UUID) ([]*ProfileReaction, error) {
	var reactions []*ProfileReaction
	err := r.db.Where("reactor_id = ?", reactorID).
		Order("created_at DESC").
		Find(&reactions).Error
	return reactions, err
}

func (r *repository) ListByTarget(targetID uuid.UUID) ([]*ProfileReaction, error) {
	var reactions []*ProfileReaction
	err := r.db.Where("target_id = ?", targetID).
		Order("created_at DESC").
		Find(&reactions).Error
	return reactions, err
}

func (r *repository) IncrementQuota(userID uuid.UUID, date string) error {
	return r.db.Exec(`
		INSERT INTO reaction_quota (id, user_id, date, count, created_at, updated_at)
		VALUES (?, ?, ?, 1, NOW(), NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			count = reaction_quota.count + 1,
			updated_at = NOW()
	`, uuid.New(), userID, date).Error
}

func (r *repository) DecrementQuota(userID uuid.UUID, date string) (bool, error) {
	result := r.db.Exec(`
		UPDATE reaction_quota SET
			count = count - 1,
			updated_at = NOW()
		WHERE user_id = ? AND date = ? AND count > 0
	`, userID, date)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) GetQuotaCount(userID uuid.UUID, date string) (int, error) {
	var quota ReactionQuota
	err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&quota).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return quota.Count, nil
}

func (r *repository) PruneQuotaBefore(date string) (int64, error) {
	result := r.db.Where("date < ?", date).Delete(&ReactionQuota{})
	return result.RowsAffected, result.Error
}

// QuotaDate formats the calendar day key for quota rows.
func QuotaDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
