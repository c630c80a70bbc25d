package inmemory

import (
	"context"

	userdomain "chronos-go/internal/domain/user"
)

type UserRepository struct {
	session
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{session{store: store}}
}

func (r *UserRepository) UpsertByYandexID(ctx context.Context, user *userdomain.User) error {
	return r.run(ctx, func(t *tables) error {
		now := r.store.now()
		for id, existing := range t.users {
			if existing.YandexID != user.YandexID {
				continue
			}
			existing.Email = user.Email
			existing.Name = user.Name
			if user.AvatarURL != nil {
				existing.AvatarURL = user.AvatarURL
			}
			existing.UpdatedAt = now
			t.users[id] = existing
			return nil
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now
		t.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) EnsureUser(ctx context.Context, user *userdomain.User) error {
	return r.run(ctx, func(t *tables) error {
		if _, ok := t.users[user.ID]; ok {
			return nil
		}
		now := r.store.now()
		user.CreatedAt = now
		user.UpdatedAt = now
		t.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	var result userdomain.User
	err := r.run(ctx, func(t *tables) error {
		user, ok := t.users[id]
		if !ok {
			return userdomain.ErrUserNotFound
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *UserRepository) GetByYandexID(ctx context.Context, yandexID string) (*userdomain.User, error) {
	var result *userdomain.User
	err := r.run(ctx, func(t *tables) error {
		for _, user := range t.users {
			if user.YandexID == yandexID {
				found := user
				result = &found
				return nil
			}
		}
		return userdomain.ErrUserNotFound
	})
	return result, err
}
