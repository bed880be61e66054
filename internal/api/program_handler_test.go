package api

import (
	"net/http"
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBlock creates a one week, one day, one exercise, one set block through the API.
func buildBlock(t *testing.T, s *testServer, coach, athlete account) (block domain.Block, set domain.Set) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/blocks", coach.Token, CreateBlockRequest{
		AthleteID: athlete.ID,
		Name:      "Hypertrophy 1",
		StartDate: "2026-03-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	block = decode[domain.Block](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/blocks/"+block.ID.Hex()+"/weeks", coach.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	week := decode[domain.Week](t, rec)
	assert.Equal(t, 1, week.WeekNumber)

	rec = s.do(t, http.MethodPost, "/api/v1/weeks/"+week.ID.Hex()+"/days", coach.Token, DayRequest{Name: "Lower"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode[domain.Day](t, rec)
	require.NotNil(t, day.Date)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), day.Date.UTC())

	rec = s.do(t, http.MethodPost, "/api/v1/days/"+day.ID.Hex()+"/exercises", coach.Token, ExerciseRequest{Name: "Back Squat"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	exercise := decode[domain.Exercise](t, rec)

	reps, weight := 5, 140.0
	rec = s.do(t, http.MethodPost, "/api/v1/exercises/"+exercise.ID.Hex()+"/sets", coach.Token, SetRequest{Reps: &reps, Weight: &weight})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	set = decode[domain.Set](t, rec)
	return block, set
}

func TestBlockLifecycle(t *testing.T) {
	s := newTestServer(t)
	coach, athlete := s.connected(t)
	block, set := buildBlock(t, s, coach, athlete)

	// the athlete sees the block and its tree
	rec := s.do(t, http.MethodGet, "/api/v1/blocks", athlete.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Block](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/v1/blocks/"+block.ID.Hex(), athlete.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[service.ProgramTree](t, rec)
	require.Len(t, tree.Weeks, 1)
	require.Len(t, tree.Weeks[0].Days, 1)
	require.Len(t, tree.Weeks[0].Days[0].Exercises, 1)
	require.Len(t, tree.Weeks[0].Days[0].Exercises[0].Sets, 1)

	// athletes cannot edit
	rec = s.do(t, http.MethodPut, "/api/v1/blocks/"+block.ID.Hex(), athlete.Token, UpdateBlockRequest{Name: "mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// log, then read the history as the coach
	reps, weight := 5, 150.0
	rec = s.do(t, http.MethodPut, "/api/v1/sets/"+set.ID.Hex()+"/log", athlete.Token, LogSetRequest{ActualReps: &reps, ActualWeight: &weight})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[domain.Set](t, rec).Completed)

	rec = s.do(t, http.MethodGet, "/api/v1/history?name=back%20squat&athleteId="+athlete.ID, coach.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	history := decode[[]service.HistoryEntry](t, rec)
	require.Len(t, history, 1)
	assert.InDelta(t, 175.0, history[0].EstimatedOneRepMax, 1e-9)

	// a duplicate carries the plan but not the log
	rec = s.do(t, http.MethodPost, "/api/v1/blocks/"+block.ID.Hex()+"/duplicate", coach.Token, CopyBlockRequest{StartDate: "2026-04-06"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dup := decode[domain.Block](t, rec)
	assert.Equal(t, "Hypertrophy 1 (copy)", dup.Name)

	rec = s.do(t, http.MethodGet, "/api/v1/blocks/"+dup.ID.Hex(), coach.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dupTree := decode[service.ProgramTree](t, rec)
	dupSet := dupTree.Weeks[0].Days[0].Exercises[0].Sets[0]
	assert.False(t, dupSet.Completed)
	assert.Nil(t, dupSet.ActualReps)
	assert.Equal(t, time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC), dupTree.Weeks[0].Days[0].Date.UTC())

	// delete hides the block from both sides
	rec = s.do(t, http.MethodDelete, "/api/v1/blocks/"+block.ID.Hex(), coach.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/blocks/"+block.ID.Hex(), athlete.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplates_SaveAndAssign(t *testing.T) {
	s := newTestServer(t)
	coach, athlete := s.connected(t)
	block, _ := buildBlock(t, s, coach, athlete)

	rec := s.do(t, http.MethodPost, "/api/v1/blocks/"+block.ID.Hex()+"/save-as-template", coach.Token, CopyTemplateRequest{Name: "Base"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	template := decode[domain.Template](t, rec)
	assert.Equal(t, "Base", template.Name)

	rec = s.do(t, http.MethodGet, "/api/v1/templates/"+template.ID.Hex(), coach.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[service.ProgramTree](t, rec)
	require.Len(t, tree.Weeks, 1)
	assert.Nil(t, tree.Weeks[0].Days[0].Date)

	// athletes have no template routes at all
	rec = s.do(t, http.MethodGet, "/api/v1/templates", athlete.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/templates/"+template.ID.Hex()+"/assign", coach.Token, CopyBlockRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "athleteId is required")

	rec = s.do(t, http.MethodPost, "/api/v1/templates/"+template.ID.Hex()+"/assign", coach.Token, CopyBlockRequest{
		AthleteID: athlete.ID,
		StartDate: "2026-05-04",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assigned := decode[domain.Block](t, rec)
	require.NotNil(t, assigned.TemplateID)
	assert.Equal(t, template.ID, *assigned.TemplateID)
	require.NotNil(t, assigned.EndDate)
	assert.Equal(t, time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), assigned.EndDate.UTC())

	rec = s.do(t, http.MethodGet, "/api/v1/templates", coach.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Template](t, rec), 1)
}

func TestCreateBlock_RequiresConnection(t *testing.T) {
	s := newTestServer(t)
	coach := s.signUp(t, domain.RoleCoach)
	stranger := s.signUp(t, domain.RoleAthlete)

	rec := s.do(t, http.MethodPost, "/api/v1/blocks", coach.Token, CreateBlockRequest{AthleteID: stranger.ID, Name: "Nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/blocks", stranger.Token, CreateBlockRequest{AthleteID: stranger.ID, Name: "Self coached"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/blocks", coach.Token, CreateBlockRequest{AthleteID: "zzz", Name: "Bad id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/blocks", coach.Token, CreateBlockRequest{AthleteID: stranger.ID, Name: "Bad date", StartDate: "03/02/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTreeEditing_ReorderAndDelete(t *testing.T) {
	s := newTestServer(t)
	coach, athlete := s.connected(t)
	block, _ := buildBlock(t, s, coach, athlete)

	rec := s.do(t, http.MethodGet, "/api/v1/blocks/"+block.ID.Hex(), coach.Token, nil)
	tree := decode[service.ProgramTree](t, rec)
	day := tree.Weeks[0].Days[0]
	first := day.Exercises[0].ID.Hex()

	rec = s.do(t, http.MethodPost, "/api/v1/days/"+day.ID.Hex()+"/exercises", coach.Token, ExerciseRequest{Name: "Leg Press"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[domain.Exercise](t, rec).ID.Hex()

	rec = s.do(t, http.MethodPut, "/api/v1/days/"+day.ID.Hex()+"/exercises/order", coach.Token, ReorderExercisesRequest{ExerciseIDs: []string{second}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "partial order")

	rec = s.do(t, http.MethodPut, "/api/v1/days/"+day.ID.Hex()+"/exercises/order", coach.Token, ReorderExercisesRequest{ExerciseIDs: []string{second, first}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ordered := decode[[]domain.Exercise](t, rec)
	require.Len(t, ordered, 2)
	assert.Equal(t, "Leg Press", ordered[0].Name)
	assert.Equal(t, 1, ordered[0].Order)

	rec = s.do(t, http.MethodPost, "/api/v1/weeks/"+tree.Weeks[0].ID.Hex()+"/duplicate", coach.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[domain.Week](t, rec).WeekNumber)

	rec = s.do(t, http.MethodDelete, "/api/v1/weeks/"+tree.Weeks[0].ID.Hex(), coach.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/blocks/"+block.ID.Hex(), coach.Token, nil)
	tree = decode[service.ProgramTree](t, rec)
	require.Len(t, tree.Weeks, 1)
	assert.Equal(t, 1, tree.Weeks[0].WeekNumber)
	assert.Len(t, tree.Weeks[0].Days[0].Exercises, 2)
}

func TestSetVideo_DisabledWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	coach, athlete := s.connected(t)
	_, set := buildBlock(t, s, coach, athlete)

	rec := s.do(t, http.MethodPost, "/api/v1/sets/"+set.ID.Hex()+"/video/upload-url", athlete.Token, RequestUploadURLRequest{ContentType: "video/mp4"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/sets/"+set.ID.Hex()+"/video/upload-url", coach.Token, RequestUploadURLRequest{ContentType: "video/mp4"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "coaches do not upload")
}
