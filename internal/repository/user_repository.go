package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SauceFoong/slot-booking-system/internal/model"
)

type UserRepository interface {
	// Создать пользователя.
	Create(ctx context.Context, user *model.User) error
	// Получить пользователя по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Есть ли у пользователя роль с данным кодом.
	HasRole(ctx context.Context, userID uuid.UUID, roleCode string) (bool, error)
	// Назначить пользователю роль; роли только добавляются.
	GrantRole(ctx context.Context, userID uuid.UUID, roleCode string) error
	// Репозиторий, привязанный к переданной транзакции.
	WithTx(tx *gorm.DB) UserRepository
}

// Реализация на GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	return &GormUserRepository{db: tx}
}

func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) HasRole(ctx context.Context, userID uuid.UUID, roleCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.code = ?", roleCode).
		Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) GrantRole(ctx context.Context, userID uuid.UUID, roleCode string) error {
	var role model.Role
	if err := r.db.WithContext(ctx).
		Where(model.Role{Code: roleCode}).
		FirstOrCreate(&role).Error; err != nil {
		return err
	}

	var existing int64
	if err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&model.UserRole{
		RoleID: role.ID,
		UserID: userID,
	}).Error
}
