package user

import "context"

type Repository interface {
	// UpsertByYandexID inserts the user or refreshes email, name and avatar of
	// the row with the same yandex id.
	UpsertByYandexID(ctx context.Context, user *User) error
	// EnsureUser inserts the user unless a row with the same id exists.
	EnsureUser(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByYandexID(ctx context.Context, yandexID string) (*User, error)
}
