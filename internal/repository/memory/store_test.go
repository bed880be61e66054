package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTreeRepo_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	weeks := store.Weeks()
	programID := primitive.NewObjectID()

	batch := []*domain.Week{
		{ProgramID: programID, ProgramKind: domain.KindBlock, WeekNumber: 3},
		{ProgramID: programID, ProgramKind: domain.KindBlock, WeekNumber: 1},
		{ProgramID: programID, ProgramKind: domain.KindBlock, WeekNumber: 2},
	}
	require.NoError(t, weeks.CreateMany(ctx, batch))
	for _, w := range batch {
		assert.NotEqual(t, primitive.NilObjectID, w.ID)
		assert.False(t, w.CreatedAt.IsZero())
	}

	listed, err := weeks.ListByProgram(ctx, programID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{listed[0].WeekNumber, listed[1].WeekNumber, listed[2].WeekNumber})

	require.NoError(t, weeks.SoftDeleteMany(ctx, []primitive.ObjectID{batch[1].ID}, time.Now()))
	_, err = weeks.GetByID(ctx, batch[1].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	listed, err = weeks.ListByProgram(ctx, programID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	deleted := *batch[1]
	assert.ErrorIs(t, weeks.Update(ctx, &deleted), repository.ErrNotFound)
	assert.Equal(t, 3, store.Counts()["weeks"])

	require.NoError(t, weeks.HardDeleteMany(ctx, []primitive.ObjectID{batch[0].ID, batch[1].ID}))
	assert.Equal(t, 1, store.Counts()["weeks"])
}

func TestTreeRepo_RejectsInvalidAndInjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Days().CreateMany(ctx, []*domain.Day{{ProgramID: primitive.NewObjectID(), ProgramKind: domain.KindBlock, DayNumber: 1}})
	assert.ErrorIs(t, err, repository.ErrInvalid)

	boom := errors.New("boom")
	store.FailOn = func(collection string) error {
		if collection == "sets" {
			return boom
		}
		return nil
	}
	_, err = store.Sets().Create(ctx, &domain.Set{ProgramID: primitive.NewObjectID(), ExerciseID: primitive.NewObjectID(), ProgramKind: domain.KindTemplate})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Counts()["sets"])
}

func TestSetRepo_FieldWritesLeaveOthersAlone(t *testing.T) {
	ctx := context.Background()
	sets := NewStore().Sets()
	reps, weight := 5, 100.0
	set := &domain.Set{ProgramID: primitive.NewObjectID(), ExerciseID: primitive.NewObjectID(), ProgramKind: domain.KindBlock, Order: 1, Reps: &reps}
	_, err := sets.Create(ctx, set)
	require.NoError(t, err)

	// both writers start from the same snapshot
	coach, athlete := *set, *set
	coachReps := 3
	coach.Reps = &coachReps
	coach.Order = 7
	athlete.ActualReps, athlete.ActualWeight, athlete.Completed = &reps, &weight, true
	video := primitive.NewObjectID()

	require.NoError(t, sets.UpdateLog(ctx, &athlete))
	require.NoError(t, sets.UpdatePrescription(ctx, &coach))
	require.NoError(t, sets.SetVideo(ctx, set.ID, &video))

	got, err := sets.GetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.Reps)
	assert.Equal(t, 1, got.Order)
	assert.True(t, got.Completed)
	assert.Equal(t, 100.0, *got.ActualWeight)
	assert.Equal(t, video, *got.VideoUploadID)

	require.NoError(t, sets.SoftDeleteMany(ctx, []primitive.ObjectID{set.ID}, time.Now()))
	assert.ErrorIs(t, sets.SetOrder(ctx, set.ID, 2), repository.ErrNotFound)
}

func TestDayRepo_ScheduledDateKeepsOverride(t *testing.T) {
	ctx := context.Background()
	days := NewStore().Days()
	planned := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	manual := planned.AddDate(0, 0, 3)
	day := &domain.Day{ProgramID: primitive.NewObjectID(), WeekID: primitive.NewObjectID(), ProgramKind: domain.KindBlock, DayNumber: 1, Date: &planned}
	_, err := days.Create(ctx, day)
	require.NoError(t, err)

	next := planned.AddDate(0, 0, 7)
	require.NoError(t, days.SetScheduledDate(ctx, day.ID, &next))
	got, err := days.GetByID(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(next))

	got.Date, got.DateOverridden = &manual, true
	require.NoError(t, days.UpdateDetails(ctx, got))
	require.NoError(t, days.SetScheduledDate(ctx, day.ID, &planned))
	got, err = days.GetByID(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(manual))
	assert.True(t, got.DateOverridden)
}

func TestTreeRepo_SoftDeleteByProgram(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	keep, drop := primitive.NewObjectID(), primitive.NewObjectID()
	for _, programID := range []primitive.ObjectID{keep, drop} {
		_, err := store.Exercises().Create(ctx, &domain.Exercise{
			ProgramID: programID, ProgramKind: domain.KindBlock, DayID: primitive.NewObjectID(), Order: 1, Name: gofakeit.Word(),
		})
		require.NoError(t, err)
	}

	require.NoError(t, store.Exercises().SoftDeleteByProgram(ctx, drop, time.Now()))
	rows, err := store.Exercises().ListByPrograms(ctx, []primitive.ObjectID{keep, drop})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, keep, rows[0].ProgramID)
}

func TestUserRepo_LinksAndSearch(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	newUser := func(name, username string, role domain.Role) primitive.ObjectID {
		id, err := users.Create(ctx, &domain.User{
			Name: name, NameLower: name, Username: username, Email: username + "@example.com",
			PasswordHash: "hash", Role: role,
		})
		require.NoError(t, err)
		return id
	}
	coach := newUser("anna", "coach_anna", domain.RoleCoach)
	athlete := newUser("ben", "annabel", domain.RoleAthlete)

	_, err := users.Create(ctx, &domain.User{Name: "x", Username: "annabel", Email: "other@example.com", PasswordHash: "h", Role: domain.RoleAthlete})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, users.AddLink(ctx, coach, domain.LinkAthletes, athlete))
	require.NoError(t, users.AddLink(ctx, coach, domain.LinkAthletes, athlete))
	got, err := users.GetByID(ctx, coach)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{athlete}, got.Athletes)

	// callers own their copy
	got.Athletes[0] = primitive.NewObjectID()
	again, err := users.GetByID(ctx, coach)
	require.NoError(t, err)
	assert.Equal(t, athlete, again.Athletes[0])

	require.NoError(t, users.RemoveLink(ctx, coach, domain.LinkAthletes, athlete))
	again, err = users.GetByID(ctx, coach)
	require.NoError(t, err)
	assert.Empty(t, again.Athletes)
	assert.ErrorIs(t, users.AddLink(ctx, primitive.NewObjectID(), domain.LinkCoaches, coach), repository.ErrNotFound)

	found, err := users.Search(ctx, repository.UserSearch{Prefix: "ann"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	found, err = users.Search(ctx, repository.UserSearch{Prefix: "ann", Role: domain.RoleAthlete})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, athlete, found[0].ID)
	found, err = users.Search(ctx, repository.UserSearch{Prefix: "ann", ExcludeID: coach})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestUploadRepo_OnePerSet(t *testing.T) {
	ctx := context.Background()
	uploads := NewStore().Uploads()
	upload := func() *domain.Upload {
		return &domain.Upload{
			SetID: primitive.NilObjectID, AthleteID: primitive.NewObjectID(), CoachID: primitive.NewObjectID(), ObjectKey: "k",
		}
	}
	_, err := uploads.Create(ctx, upload())
	assert.Error(t, err)

	setID := primitive.NewObjectID()
	first := upload()
	first.SetID = setID
	id, err := uploads.Create(ctx, first)
	require.NoError(t, err)

	second := upload()
	second.SetID = setID
	_, err = uploads.Create(ctx, second)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, uploads.Delete(ctx, id))
	_, err = uploads.GetBySetID(ctx, setID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
