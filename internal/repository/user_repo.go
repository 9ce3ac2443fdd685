package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	ExternalIDExists(ctx context.Context, externalID string) (bool, error)
	MaxID(ctx context.Context) (uint, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Role").Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *userRepository) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("external_id = ?", externalID).Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// MaxID returns the highest assigned user id, or 0 when no user exists.
func (r *userRepository) MaxID(ctx context.Context) (uint, error) {
	var maxID int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	if maxID < 0 {
		return 0, nil
	}
	return uint(maxID), nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Preload("Role").Order("name ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Delete removes a user. Activities referencing the user keep existing with a NULL responsible user.
func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
