package inmemory

import (
	"sync"
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
)

// MeetingCache keeps meetings resolved from invite links for a short while.
type MeetingCache struct {
	mu    sync.RWMutex
	items map[string]meetingItem
}

type meetingItem struct {
	value     meetingdomain.Meeting
	expiresAt time.Time
}

func NewMeetingCache() *MeetingCache {
	return &MeetingCache{
		items: make(map[string]meetingItem),
	}
}

func (c *MeetingCache) GetByShareToken(token string) (*meetingdomain.Meeting, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[token]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[token]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, token)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *MeetingCache) SetByShareToken(token string, meeting *meetingdomain.Meeting, ttl time.Duration) {
	if meeting == nil || ttl <= 0 {
		c.DeleteByShareToken(token)
		return
	}

	c.mu.Lock()
	c.items[token] = meetingItem{
		value:     *meeting,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *MeetingCache) DeleteByShareToken(token string) {
	c.mu.Lock()
	delete(c.items, token)
	c.mu.Unlock()
}

// Len counts entries including expired ones not yet evicted.
func (c *MeetingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
