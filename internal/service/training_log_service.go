package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetLog is what the athlete reports for one set.
type SetLog struct {
	ActualReps   *int
	ActualWeight *float64
	ActualRPE    *float64
	Notes        string
}

// HistoryEntry is one logged set of a named exercise, ready for charting.
type HistoryEntry struct {
	BlockID            primitive.ObjectID `json:"blockId"`
	BlockName          string             `json:"blockName"`
	DayID              primitive.ObjectID `json:"dayId"`
	Date               *time.Time         `json:"date,omitempty"`
	ExerciseName       string             `json:"exerciseName"`
	SetID              primitive.ObjectID `json:"setId"`
	Reps               *int               `json:"reps,omitempty"`
	Weight             *float64           `json:"weight,omitempty"`
	RPE                *float64           `json:"rpe,omitempty"`
	LoggedAt           *time.Time         `json:"loggedAt,omitempty"`
	EstimatedOneRepMax float64            `json:"estimatedOneRepMax"`
}

type TrainingLogService interface {
	LogSet(ctx context.Context, actor Actor, setID primitive.ObjectID, log SetLog) (*domain.Set, error)
	ClearSetLog(ctx context.Context, actor Actor, setID primitive.ObjectID) (*domain.Set, error)
	CompleteDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, completed bool) (*domain.Day, error)
	// ExerciseHistory lists the athlete's completed sets of every exercise
	// named name (case-insensitive) across their live blocks.
	ExerciseHistory(ctx context.Context, actor Actor, athleteID primitive.ObjectID, name string) ([]HistoryEntry, error)
}

type trainingLogService struct {
	blockRepo   repository.BlockRepository
	tree        TreeRepos
	loader      programLoader
	connections ConnectionService
	now         func() time.Time
}

func NewTrainingLogService(deps ProgramDeps) TrainingLogService {
	return &trainingLogService{
		blockRepo:   deps.Blocks,
		tree:        deps.Tree,
		loader:      programLoader{blockRepo: deps.Blocks, templateRepo: deps.Templates},
		connections: deps.Connections,
		now:         time.Now,
	}
}

// athleteBlock checks that ref is a block assigned to the calling athlete.
func (s *trainingLogService) athleteBlock(ctx context.Context, actor Actor, ref domain.ProgramRef) error {
	if ref.Kind != domain.KindBlock {
		return ErrNotABlock
	}
	if !actor.IsAthlete() {
		return ErrAthleteOnly
	}
	p, err := s.loader.load(ctx, ref)
	if err != nil {
		return err
	}
	if p.AthleteID != actor.ID {
		return ErrProgramAccessDenied
	}
	return nil
}

func (s *trainingLogService) loggableSet(ctx context.Context, actor Actor, setID primitive.ObjectID) (*domain.Set, error) {
	set, err := s.tree.Sets.GetByID(ctx, setID)
	if err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	if err := s.athleteBlock(ctx, actor, set.Program()); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *trainingLogService) LogSet(ctx context.Context, actor Actor, setID primitive.ObjectID, log SetLog) (*domain.Set, error) {
	if log.ActualReps != nil && *log.ActualReps < 0 {
		return nil, fmt.Errorf("%w: reps cannot be negative", ErrValidationFailed)
	}
	if log.ActualWeight != nil && *log.ActualWeight < 0 {
		return nil, fmt.Errorf("%w: weight cannot be negative", ErrValidationFailed)
	}
	if log.ActualRPE != nil && (*log.ActualRPE < 0 || *log.ActualRPE > 10) {
		return nil, fmt.Errorf("%w: rpe must be between 0 and 10", ErrValidationFailed)
	}
	set, err := s.loggableSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	set.ActualReps = log.ActualReps
	set.ActualWeight = log.ActualWeight
	set.ActualRPE = log.ActualRPE
	set.AthleteNotes = log.Notes
	set.Completed = true
	set.LoggedAt = &now
	if err := s.tree.Sets.UpdateLog(ctx, set); err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	return set, nil
}

// ClearSetLog resets the athlete's entry. An attached video stays linked.
func (s *trainingLogService) ClearSetLog(ctx context.Context, actor Actor, setID primitive.ObjectID) (*domain.Set, error) {
	set, err := s.loggableSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	set.ClearLog()
	if err := s.tree.Sets.UpdateLog(ctx, set); err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	return set, nil
}

func (s *trainingLogService) CompleteDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, completed bool) (*domain.Day, error) {
	day, err := s.tree.Days.GetByID(ctx, dayID)
	if err != nil {
		return nil, notFound(err, ErrDayNotFound)
	}
	if err := s.athleteBlock(ctx, actor, day.Program()); err != nil {
		return nil, err
	}
	day.Completed = completed
	day.CompletedAt = nil
	if completed {
		now := s.now().UTC()
		day.CompletedAt = &now
	}
	if err := s.tree.Days.UpdateCompletion(ctx, day); err != nil {
		return nil, notFound(err, ErrDayNotFound)
	}
	return day, nil
}

func (s *trainingLogService) ExerciseHistory(ctx context.Context, actor Actor, athleteID primitive.ObjectID, name string) ([]HistoryEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrValidationFailed)
	}
	if actor.ID != athleteID {
		if !actor.IsCoach() {
			return nil, ErrProgramAccessDenied
		}
		connected, err := s.connections.AreConnected(ctx, actor.ID, athleteID)
		if err != nil {
			return nil, err
		}
		if !connected {
			return nil, ErrNotConnected
		}
	}

	blocks, err := s.blockRepo.ListByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return []HistoryEntry{}, nil
	}
	blockByID := make(map[primitive.ObjectID]*domain.Block, len(blocks))
	blockIDs := make([]primitive.ObjectID, len(blocks))
	for i := range blocks {
		blockByID[blocks[i].ID] = &blocks[i]
		blockIDs[i] = blocks[i].ID
	}

	all, err := s.tree.Exercises.ListByPrograms(ctx, blockIDs)
	if err != nil {
		return nil, err
	}
	exercises := make(map[primitive.ObjectID]domain.Exercise)
	programsWithMatch := make(map[primitive.ObjectID]struct{})
	for _, e := range all {
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			exercises[e.ID] = e
			programsWithMatch[e.ProgramID] = struct{}{}
		}
	}
	if len(exercises) == 0 {
		return []HistoryEntry{}, nil
	}

	days := make(map[primitive.ObjectID]domain.Day)
	for programID := range programsWithMatch {
		programDays, err := s.tree.Days.ListByProgram(ctx, programID)
		if err != nil {
			return nil, err
		}
		for _, d := range programDays {
			days[d.ID] = d
		}
	}

	sets, err := s.tree.Sets.ListByExercises(ctx, keysOf(exercises))
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(sets))
	for i := range sets {
		set := &sets[i]
		if !set.Completed {
			continue
		}
		exercise := exercises[set.ExerciseID]
		day, ok := days[exercise.DayID]
		if !ok {
			continue
		}
		entries = append(entries, HistoryEntry{
			BlockID:            exercise.ProgramID,
			BlockName:          blockByID[exercise.ProgramID].Name,
			DayID:              day.ID,
			Date:               day.Date,
			ExerciseName:       exercise.Name,
			SetID:              set.ID,
			Reps:               set.ActualReps,
			Weight:             set.ActualWeight,
			RPE:                set.ActualRPE,
			LoggedAt:           set.LoggedAt,
			EstimatedOneRepMax: set.EstimatedOneRepMax(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return historyBefore(entries[i], entries[j])
	})
	return entries, nil
}

// historyBefore orders entries by scheduled date, falling back to the log
// time for undated days. Sets of the same day go in the order they were logged.
func historyBefore(a, b HistoryEntry) bool {
	if c := historyTime(a).Compare(historyTime(b)); c != 0 {
		return c < 0
	}
	return compareTimes(a.LoggedAt, b.LoggedAt) < 0
}

func historyTime(e HistoryEntry) time.Time {
	if e.Date != nil {
		return *e.Date
	}
	if e.LoggedAt != nil {
		return *e.LoggedAt
	}
	return time.Time{}
}

// compareTimes orders nil after any time.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func keysOf[V any](m map[primitive.ObjectID]V) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
