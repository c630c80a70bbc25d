package meeting

import "time"

// Cache holds meetings resolved from invite links.
type Cache interface {
	GetByShareToken(token string) (*Meeting, bool)
	SetByShareToken(token string, meeting *Meeting, ttl time.Duration)
	DeleteByShareToken(token string)
}

type noopCache struct{}

func (noopCache) GetByShareToken(string) (*Meeting, bool) {
	return nil, false
}

func (noopCache) SetByShareToken(string, *Meeting, time.Duration) {}

func (noopCache) DeleteByShareToken(string) {}
