package service

import (
	"context"
	"testing"

	"alcyxob/blockcoach/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConnectionService_RequestAndAccept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach := f.addUser(t, domain.RoleCoach, "")
	athlete := f.addUser(t, domain.RoleAthlete, "")

	outcome, err := f.connections.SendRequest(ctx, coach, athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequested, outcome)

	sent, err := f.connections.ListSent(ctx, coach)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, athlete.ID, sent[0].ID)

	pending, err := f.connections.ListPending(ctx, athlete)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, coach.ID, pending[0].ID)
	assert.Empty(t, pending[0].PasswordHash)

	_, err = f.connections.SendRequest(ctx, coach, athlete.ID)
	assert.ErrorIs(t, err, ErrRequestAlreadySent)

	require.NoError(t, f.connections.Accept(ctx, athlete, coach.ID))

	connected, err := f.connections.AreConnected(ctx, coach.ID, athlete.ID)
	require.NoError(t, err)
	assert.True(t, connected)

	me, err := f.users.GetMe(ctx, athlete)
	require.NoError(t, err)
	assert.Empty(t, me.PendingRequests)
	assert.Equal(t, []primitive.ObjectID{coach.ID}, me.Coaches)

	coachMe, err := f.users.GetMe(ctx, coach)
	require.NoError(t, err)
	assert.Empty(t, coachMe.SentRequests)
	assert.Len(t, coachMe.Athletes, 1)

	_, err = f.connections.SendRequest(ctx, athlete, coach.ID)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestConnectionService_MutualRequestConnects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach := f.addUser(t, domain.RoleCoach, "")
	athlete := f.addUser(t, domain.RoleAthlete, "")

	_, err := f.connections.SendRequest(ctx, athlete, coach.ID)
	require.NoError(t, err)
	outcome, err := f.connections.SendRequest(ctx, coach, athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConnected, outcome)

	connections, err := f.connections.ListConnections(ctx, coach)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, athlete.ID, connections[0].ID)

	sent, err := f.connections.ListSent(ctx, athlete)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestConnectionService_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach := f.addUser(t, domain.RoleCoach, "")
	otherCoach := f.addUser(t, domain.RoleCoach, "")
	athlete := f.addUser(t, domain.RoleAthlete, "")

	_, err := f.connections.SendRequest(ctx, coach, coach.ID)
	assert.ErrorIs(t, err, ErrSelfRequest)

	_, err = f.connections.SendRequest(ctx, coach, otherCoach.ID)
	assert.ErrorIs(t, err, ErrSameRole)

	assert.ErrorIs(t, f.connections.Accept(ctx, athlete, coach.ID), ErrRequestNotFound)
	assert.ErrorIs(t, f.connections.Disconnect(ctx, athlete, coach.ID), ErrNotConnected)
}

func TestConnectionService_DeclineCancelDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach := f.addUser(t, domain.RoleCoach, "")
	athlete := f.addUser(t, domain.RoleAthlete, "")

	_, err := f.connections.SendRequest(ctx, coach, athlete.ID)
	require.NoError(t, err)
	require.NoError(t, f.connections.Decline(ctx, athlete, coach.ID))
	sent, err := f.connections.ListSent(ctx, coach)
	require.NoError(t, err)
	assert.Empty(t, sent)

	_, err = f.connections.SendRequest(ctx, coach, athlete.ID)
	require.NoError(t, err)
	require.NoError(t, f.connections.Cancel(ctx, coach, athlete.ID))
	pending, err := f.connections.ListPending(ctx, athlete)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.ErrorIs(t, f.connections.Cancel(ctx, coach, athlete.ID), ErrRequestNotFound)

	f.connect(t, coach, athlete)
	block := f.newBlock(t, coach, athlete, nil, shape{weeks: 1, days: 1})

	require.NoError(t, f.connections.Disconnect(ctx, athlete, coach.ID))
	connected, err := f.connections.AreConnected(ctx, coach.ID, athlete.ID)
	require.NoError(t, err)
	assert.False(t, connected)

	// the athlete keeps what was already planned
	_, err = f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	assert.NoError(t, err)
	// but the coach can no longer plan new blocks for them
	_, err = f.programs.CreateBlock(ctx, coach, BlockInput{AthleteID: athlete.ID, Name: "Next"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
