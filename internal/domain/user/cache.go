package user

import "time"

// Cache keeps recently authenticated users by id.
type Cache interface {
	GetByID(id uint) (*User, bool)
	SetByID(id uint, user *User, ttl time.Duration)
	DeleteByID(id uint)
}

type noopCache struct{}

func (noopCache) GetByID(uint) (*User, bool) {
	return nil, false
}

func (noopCache) SetByID(uint, *User, time.Duration) {}

func (noopCache) DeleteByID(uint) {}
