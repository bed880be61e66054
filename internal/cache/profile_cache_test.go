package cache

import (
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProfileCache_SetGetInvalidate(t *testing.T) {
	c := NewProfileCache(1, time.Minute)

	user := &domain.User{
		ID:           primitive.NewObjectID(),
		Name:         gofakeit.Name(),
		Username:     gofakeit.Username(),
		Email:        gofakeit.Email(),
		PasswordHash: "secret-hash",
		Role:         domain.RoleCoach,
		Athletes:     []primitive.ObjectID{primitive.NewObjectID()},
	}

	_, ok := c.Get(user.ID)
	assert.False(t, ok)

	c.Set(user)
	assert.Equal(t, int64(1), c.EntryCount())

	cached, ok := c.Get(user.ID)
	require.True(t, ok)
	assert.Equal(t, user.Name, cached.Name)
	assert.Equal(t, user.Athletes, cached.Athletes)
	assert.Empty(t, cached.PasswordHash)

	c.Invalidate(user.ID)
	_, ok = c.Get(user.ID)
	assert.False(t, ok)
}
