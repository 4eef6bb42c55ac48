package inmemory

import (
	"sync"
	"time"

	userdomain "victim-aid-go/internal/domain/user"
)

type InMemoryUserCache struct {
	mu    sync.RWMutex
	items map[uint]userItem
}

type userItem struct {
	value     userdomain.User
	expiresAt time.Time
}

func NewInMemoryUserCache() *InMemoryUserCache {
	return &InMemoryUserCache{
		items: make(map[uint]userItem),
	}
}

func (c *InMemoryUserCache) GetByID(id uint) (*userdomain.User, bool) {
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[id]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, id)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *InMemoryUserCache) SetByID(id uint, user *userdomain.User, ttl time.Duration) {
	if user == nil || ttl <= 0 {
		c.DeleteByID(id)
		return
	}

	c.mu.Lock()
	c.items[id] = userItem{
		value:     *user,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryUserCache) DeleteByID(id uint) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}

func (c *InMemoryUserCache) Clear() {
	c.mu.Lock()
	c.items = make(map[uint]userItem)
	c.mu.Unlock()
}
