package auth

import "errors"

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrProviderRejected    = errors.New("identity provider rejected the token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrOAuthNotConfigured  = errors.New("oauth client not configured")
	ErrSigningKeyMissing   = errors.New("jwt signing key not configured")
)
