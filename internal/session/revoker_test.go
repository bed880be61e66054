package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestRedisRevoker_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	now := time.Now()
	revoker := NewRedisRevoker(db)
	revoker.now = func() time.Time { return now }

	mock.ExpectSet(revokedKey("tok"), 1, time.Hour).SetVal("OK")
	require.NoError(t, revoker.Revoke(context.Background(), "tok", now.Add(time.Hour)))

	// already expired tokens are not written at all
	require.NoError(t, revoker.Revoke(context.Background(), "old", now.Add(-time.Minute)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevoker_IsRevoked(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	revoker := NewRedisRevoker(db)
	ctx := context.Background()

	mock.ExpectGet(revokedKey("revoked")).SetVal("1")
	revoked, err := revoker.IsRevoked(ctx, "revoked")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectGet(revokedKey("live")).RedisNil()
	revoked, err = revoker.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.False(t, revoked)

	mock.ExpectGet(revokedKey("broken")).SetErr(errors.New("conn reset"))
	_, err = revoker.IsRevoked(ctx, "broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedKey_HidesToken(t *testing.T) {
	key := revokedKey("my.jwt.token")
	assert.NotContains(t, key, "my.jwt.token")
	assert.Equal(t, key, revokedKey("my.jwt.token"))
}
