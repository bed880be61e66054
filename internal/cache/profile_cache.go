// Package cache keeps public user profiles in an in-process freecache.
package cache

import (
	"encoding/json"
	"time"

	"alcyxob/blockcoach/internal/domain"

	"github.com/coocood/freecache"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const megabyte = 1024 * 1024

type ProfileCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

func NewProfileCache(sizeMB int, ttl time.Duration) *ProfileCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &ProfileCache{
		cache: freecache.NewCache(sizeMB * megabyte),
		ttl:   ttl,
	}
}

// Get returns the cached profile, or false on miss.
// Cached values are JSON, so PasswordHash never survives a round trip.
func (c *ProfileCache) Get(id primitive.ObjectID) (*domain.User, bool) {
	raw, err := c.cache.Get(id[:])
	if err != nil {
		return nil, false
	}
	user := &domain.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		logrus.Warnf("profile cache: corrupt entry for %s: %s", id.Hex(), err)
		c.cache.Del(id[:])
		return nil, false
	}
	return user, true
}

func (c *ProfileCache) Set(user *domain.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		logrus.Errorf("profile cache: marshal %s: %s", user.ID.Hex(), err)
		return
	}
	if err := c.cache.Set(user.ID[:], raw, int(c.ttl.Seconds())); err != nil {
		logrus.Debugf("profile cache: set %s: %s", user.ID.Hex(), err)
	}
}

func (c *ProfileCache) Invalidate(ids ...primitive.ObjectID) {
	for _, id := range ids {
		c.cache.Del(id[:])
	}
}

func (c *ProfileCache) EntryCount() int64 {
	return c.cache.EntryCount()
}
