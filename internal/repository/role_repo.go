package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// RoleRepository reads and seeds role reference data.
type RoleRepository interface {
	WithTx(tx *gorm.DB) RoleRepository
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uint) (models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Count(ctx context.Context) (int64, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository constructs a role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) WithTx(tx *gorm.DB) RoleRepository {
	if tx == nil {
		return r
	}
	return &roleRepository{db: tx}
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id uint) (models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Role{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
