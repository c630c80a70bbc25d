package user

import (
	"context"
	"errors"
	"time"

	domain "chronos-go/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UpsertByYandexID(ctx context.Context, user *domain.User) error {
	updates := map[string]interface{}{
		"email":      user.Email,
		"name":       user.Name,
		"updated_at": time.Now().UTC(),
	}
	if user.AvatarURL != nil {
		updates["avatar_url"] = user.AvatarURL
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "yandex_id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(user).Error
}

func (r *PostgresRepository) EnsureUser(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(user).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetByYandexID(ctx context.Context, yandexID string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("yandex_id = ?", yandexID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
