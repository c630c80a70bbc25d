package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	userdomain "chronos-go/internal/domain/user"
)

// TestToken logs in a fixed development account without calling Yandex.
const TestToken = "test-token"

var testProfile = userdomain.Profile{
	YandexID: "12345",
	Email:    "test@yandex.ru",
	Name:     "Test User",
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (userdomain.Profile, error)
}

type Users interface {
	UpsertFromProfile(ctx context.Context, profile userdomain.Profile) (*userdomain.User, error)
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *userdomain.User
}

type Service struct {
	users          Users
	profiles       ProfileFetcher
	issuer         *TokenIssuer
	allowTestToken bool
}

func NewService(users Users, profiles ProfileFetcher, issuer *TokenIssuer, allowTestToken bool) *Service {
	return &Service{
		users:          users,
		profiles:       profiles,
		issuer:         issuer,
		allowTestToken: allowTestToken,
	}
}

// LoginWithYandexToken verifies a provider access token, links the account
// and issues our own token.
func (s *Service) LoginWithYandexToken(ctx context.Context, yandexToken string) (*Session, error) {
	yandexToken = strings.TrimSpace(yandexToken)
	if yandexToken == "" {
		return nil, ErrProviderRejected
	}

	var profile userdomain.Profile
	if yandexToken == TestToken && s.allowTestToken {
		profile = testProfile
	} else {
		fetched, err := s.profiles.FetchProfile(ctx, yandexToken)
		if err != nil {
			return nil, err
		}
		profile = fetched
	}

	user, err := s.users.UpsertFromProfile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}

	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// LoginWithCode completes the authorization-code flow.
func (s *Service) LoginWithCode(ctx context.Context, exchanger CodeExchanger, code string) (*Session, error) {
	accessToken, err := exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.LoginWithYandexToken(ctx, accessToken)
}
