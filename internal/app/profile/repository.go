package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(user *User) error
	GetUserByID(id uuid.UUID) (*User, error)
	GetUsersByIDs(ids []uuid.UUID) ([]*User, error)
	UsernameExists(username string) (bool, error)
	UpdateDisplayName(id uuid.UUID, displayName string) error
	UpdateCountry(id uuid.UUID, countryCode string) error
	UpdateFlagVisibility(id uuid.UUID, show bool) error
	TouchLastSeen(id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.db.Create(user).Error
}

func (r *repository) GetUserByID(id uuid.UUID) (*User, error) {
	var user User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUsersByIDs(ids []uuid.UUID) ([]*User, error) {
	var users []*User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *repository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateDisplayName(id uuid.UUID, displayName string) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"display_name": displayName,
		"updated_at":   time.Now().UTC(),
	}).Error
}

func (r *repository) UpdateCountry(id uuid.UUID, countryCode string) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"country_code": countryCode,
		"updated_at":   time.Now().UTC(),
	}).Error
}

func (r *repository) UpdateFlagVisibility(id uuid.UUID, show bool) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"show_country_flag": show,
		"updated_at":        time.Now().UTC(),
	}).Error
}

func (r *repository) TouchLastSeen(id uuid.UUID) error {
	return r.db.Model(&User{}).Where("id = ?", id).
		Update("last_seen_at", time.Now().UTC()).Error
}
