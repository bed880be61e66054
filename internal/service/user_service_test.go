package service

import (
	"context"
	"testing"

	"alcyxob/blockcoach/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Search(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	caller := f.addUser(t, domain.RoleCoach, "Sam Caller")
	f.addUser(t, domain.RoleAthlete, "Sara Lifter")
	f.addUser(t, domain.RoleAthlete, "sam runner")
	f.addUser(t, domain.RoleCoach, "Samuel Coach")
	f.addUser(t, domain.RoleAthlete, "Bob Thrower")

	found, err := f.users.Search(ctx, caller, "SA", "", 0)
	require.NoError(t, err)
	names := make([]string, len(found))
	for i, u := range found {
		names[i] = u.Name
		assert.NotEqual(t, caller.ID, u.ID)
		assert.Empty(t, u.Email)
	}
	assert.Equal(t, []string{"sam runner", "Samuel Coach", "Sara Lifter"}, names)

	athletes, err := f.users.Search(ctx, caller, "sa", domain.RoleAthlete, 0)
	require.NoError(t, err)
	assert.Len(t, athletes, 2)

	limited, err := f.users.Search(ctx, caller, "sa", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.users.Search(ctx, caller, "   ", "", 0)
	assert.ErrorIs(t, err, ErrEmptySearchQuery)

	_, err = f.users.Search(ctx, caller, "sa", "admin", 0)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestUserService_ProfileCacheInvalidatedOnUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	athlete := f.addUser(t, domain.RoleAthlete, "Old Name")

	profile, err := f.users.GetProfile(ctx, athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old Name", profile.Name)
	assert.Empty(t, profile.PasswordHash)

	updated, err := f.users.UpdateProfile(ctx, athlete, ProfileUpdate{Name: "New Name", Sport: "Powerlifting"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	profile, err = f.users.GetProfile(ctx, athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", profile.Name)
	assert.Equal(t, "Powerlifting", profile.Sport)

	_, err = f.users.UpdateProfile(ctx, athlete, ProfileUpdate{Name: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
