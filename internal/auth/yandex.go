package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chronos-go/internal/config"
	userdomain "chronos-go/internal/domain/user"
	"golang.org/x/oauth2"
)

const yandexAvatarURL = "https://avatars.yandex.net/get-yapic/%s/islands-200"

type yandexInfo struct {
	ID              string   `json:"id"`
	Login           string   `json:"login"`
	DefaultEmail    string   `json:"default_email"`
	Emails          []string `json:"emails"`
	DisplayName     string   `json:"display_name"`
	RealName        string   `json:"real_name"`
	DefaultAvatarID string   `json:"default_avatar_id"`
	IsAvatarEmpty   bool     `json:"is_avatar_empty"`
}

// YandexProvider talks to Yandex ID: the authorization-code flow and the
// profile endpoint.
type YandexProvider struct {
	oauth   *oauth2.Config
	infoURL string
	client  *http.Client
}

func NewYandexProvider(cfg config.YandexConfig) *YandexProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &YandexProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		infoURL: cfg.InfoURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *YandexProvider) configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthCodeURL is where the browser is sent to grant consent.
func (p *YandexProvider) AuthCodeURL(state string) (string, error) {
	if !p.configured() {
		return "", ErrOAuthNotConfigured
	}
	return p.oauth.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a provider access token.
func (p *YandexProvider) Exchange(ctx context.Context, code string) (string, error) {
	if !p.configured() {
		return "", ErrOAuthNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", fmt.Errorf("%w: %s", ErrProviderRejected, retrieveErr.ErrorCode)
		}
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return token.AccessToken, nil
}

// FetchProfile resolves a provider access token into the person behind it.
func (p *YandexProvider) FetchProfile(ctx context.Context, accessToken string) (userdomain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.infoURL+"?format=json", nil)
	if err != nil {
		return userdomain.Profile{}, err
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return userdomain.Profile{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return userdomain.Profile{}, ErrProviderRejected
	case resp.StatusCode != http.StatusOK:
		return userdomain.Profile{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var info yandexInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userdomain.Profile{}, fmt.Errorf("%w: decode profile: %v", ErrProviderUnavailable, err)
	}
	if info.ID == "" {
		return userdomain.Profile{}, ErrProviderRejected
	}

	return info.profile(), nil
}

func (i yandexInfo) profile() userdomain.Profile {
	profile := userdomain.Profile{
		YandexID: i.ID,
		Email:    firstNonEmpty(i.DefaultEmail, firstOf(i.Emails)),
		Name:     firstNonEmpty(i.DisplayName, i.RealName, i.Login),
	}
	if profile.Email == "" && i.Login != "" {
		profile.Email = i.Login + "@yandex.ru"
	}
	if i.DefaultAvatarID != "" && !i.IsAvatarEmpty {
		profile.AvatarURL = fmt.Sprintf(yandexAvatarURL, i.DefaultAvatarID)
	}
	return profile
}

func firstOf(values []string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
