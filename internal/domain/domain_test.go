package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScheduledDate(t *testing.T) {
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		week, day int
		want      time.Time
	}{
		{1, 1, start},
		{1, 7, time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)},
		{2, 1, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},
		{5, 3, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScheduledDate(start, tt.week, tt.day), "week %d day %d", tt.week, tt.day)
	}
}

func TestSet_EstimatedOneRepMax(t *testing.T) {
	reps := func(n int) *int { return &n }
	weight := func(w float64) *float64 { return &w }

	assert.Zero(t, (&Set{}).EstimatedOneRepMax())
	assert.Zero(t, (&Set{ActualReps: reps(0), ActualWeight: weight(100)}).EstimatedOneRepMax())
	assert.Equal(t, 180.0, (&Set{ActualReps: reps(1), ActualWeight: weight(180)}).EstimatedOneRepMax())
	assert.InDelta(t, 116.6667, (&Set{ActualReps: reps(5), ActualWeight: weight(100)}).EstimatedOneRepMax(), 1e-4)
}

func TestSet_ClearLog(t *testing.T) {
	now := time.Now()
	video := primitive.NewObjectID()
	reps := 5
	s := &Set{Reps: &reps, ActualReps: &reps, Completed: true, LoggedAt: &now, AthleteNotes: "ok", VideoUploadID: &video}
	s.ClearLog()
	assert.Nil(t, s.ActualReps)
	assert.False(t, s.Completed)
	assert.Nil(t, s.LoggedAt)
	assert.Empty(t, s.AthleteNotes)
	require.NotNil(t, s.VideoUploadID)
	assert.Equal(t, video, *s.VideoUploadID)
	assert.Equal(t, 5, *s.Reps)
}

func TestUser_Links(t *testing.T) {
	coachID := primitive.NewObjectID()
	athlete := &User{Role: RoleAthlete, Coaches: []primitive.ObjectID{coachID}}
	assert.True(t, athlete.ConnectedTo(coachID))
	assert.Equal(t, LinkCoaches, athlete.ConnectionField())
	assert.False(t, athlete.HasLink(LinkPendingRequests, coachID))

	coach := &User{Role: RoleCoach}
	assert.Equal(t, LinkAthletes, coach.ConnectionField())
	assert.Nil(t, coach.Links("unknown"))
	assert.False(t, Role("admin").Valid())
	assert.True(t, KindTemplate.Valid())
}
