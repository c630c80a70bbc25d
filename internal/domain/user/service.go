package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertFromProfile creates or refreshes the account linked to a provider profile.
func (s *Service) UpsertFromProfile(ctx context.Context, profile Profile) (*User, error) {
	yandexID := strings.TrimSpace(profile.YandexID)
	email := strings.TrimSpace(profile.Email)
	if yandexID == "" || email == "" {
		return nil, ErrInvalidProfile
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = email
	}

	user := User{
		ID:       uuid.NewString(),
		YandexID: yandexID,
		Email:    email,
		Name:     name,
	}
	if avatar := strings.TrimSpace(profile.AvatarURL); avatar != "" {
		user.AvatarURL = &avatar
	}

	if err := s.repo.UpsertByYandexID(ctx, &user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.repo.GetByYandexID(ctx, yandexID)
}

// EnsureUser makes sure a row exists for an identity that did not come from
// the provider, such as the development mock user.
func (s *Service) EnsureUser(ctx context.Context, id, email, name, avatarURL string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}

	user := User{
		ID:       id,
		YandexID: "local:" + id,
		Email:    email,
		Name:     name,
	}
	if avatarURL != "" {
		user.AvatarURL = &avatarURL
	}
	return s.repo.EnsureUser(ctx, &user)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
