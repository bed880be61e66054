package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/metrics"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const copySuffix = " (copy)"

// BlockInput describes a new block.
type BlockInput struct {
	AthleteID   primitive.ObjectID
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProgramUpdate is a metadata edit; dates only apply to blocks.
type ProgramUpdate struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CopyOptions tunes a block-producing copy. Zero values keep the source's.
type CopyOptions struct {
	AthleteID *primitive.ObjectID
	Name      string
	StartDate *time.Time
}

// ProgramTree is a block or template with its live children nested and ordered.
type ProgramTree struct {
	Block    *domain.Block    `json:"block,omitempty"`
	Template *domain.Template `json:"template,omitempty"`
	Weeks    []WeekNode       `json:"weeks"`
}

type WeekNode struct {
	domain.Week
	Days []DayNode `json:"days"`
}

type DayNode struct {
	domain.Day
	Exercises []ExerciseNode `json:"exercises"`
}

type ExerciseNode struct {
	domain.Exercise
	Sets []domain.Set `json:"sets"`
}

type ProgramService interface {
	CreateBlock(ctx context.Context, actor Actor, in BlockInput) (*domain.Block, error)
	CreateTemplate(ctx context.Context, actor Actor, name, description string) (*domain.Template, error)
	GetTree(ctx context.Context, actor Actor, ref domain.ProgramRef) (*ProgramTree, error)
	// ListBlocks returns the caller's blocks. Coaches may narrow to one athlete.
	ListBlocks(ctx context.Context, actor Actor, athleteID *primitive.ObjectID) ([]domain.Block, error)
	ListTemplates(ctx context.Context, actor Actor) ([]domain.Template, error)
	UpdateBlock(ctx context.Context, actor Actor, id primitive.ObjectID, update ProgramUpdate) (*domain.Block, error)
	UpdateTemplate(ctx context.Context, actor Actor, id primitive.ObjectID, update ProgramUpdate) (*domain.Template, error)
	DeleteProgram(ctx context.Context, actor Actor, ref domain.ProgramRef) error

	DuplicateBlock(ctx context.Context, actor Actor, blockID primitive.ObjectID, opts CopyOptions) (*domain.Block, error)
	AssignTemplate(ctx context.Context, actor Actor, templateID primitive.ObjectID, opts CopyOptions) (*domain.Block, error)
	SaveBlockAsTemplate(ctx context.Context, actor Actor, blockID primitive.ObjectID, name string) (*domain.Template, error)
	DuplicateTemplate(ctx context.Context, actor Actor, templateID primitive.ObjectID, name string) (*domain.Template, error)
}

type programService struct {
	deps   ProgramDeps
	loader programLoader
	copier *treeCopier
	keeper *treeKeeper
	now    func() time.Time
}

func NewProgramService(deps ProgramDeps) ProgramService {
	return newProgramService(deps)
}

func newProgramService(deps ProgramDeps) *programService {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	now := time.Now
	return &programService{
		deps:   deps,
		loader: programLoader{blockRepo: deps.Blocks, templateRepo: deps.Templates},
		copier: &treeCopier{
			blockRepo:    deps.Blocks,
			templateRepo: deps.Templates,
			tree:         deps.Tree,
			metrics:      deps.Metrics,
		},
		keeper: &treeKeeper{
			blockRepo:    deps.Blocks,
			templateRepo: deps.Templates,
			tree:         deps.Tree,
			now:          now,
		},
		now: now,
	}
}

// requireAthlete checks that the coach may plan for athleteID.
func (s *programService) requireAthlete(ctx context.Context, actor Actor, athleteID primitive.ObjectID) error {
	if !actor.IsCoach() {
		return ErrCoachOnly
	}
	connected, err := s.deps.Connections.AreConnected(ctx, actor.ID, athleteID)
	if err != nil {
		return err
	}
	if !connected {
		return ErrNotConnected
	}
	return nil
}

func (s *programService) CreateBlock(ctx context.Context, actor Actor, in BlockInput) (*domain.Block, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: block name is required", ErrValidationFailed)
	}
	if err := validDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if err := s.requireAthlete(ctx, actor, in.AthleteID); err != nil {
		return nil, err
	}
	block := &domain.Block{
		CoachID:     actor.ID,
		AthleteID:   in.AthleteID,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if _, err := s.deps.Blocks.Create(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *programService) CreateTemplate(ctx context.Context, actor Actor, name, description string) (*domain.Template, error) {
	if !actor.IsCoach() {
		return nil, ErrCoachOnly
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidationFailed)
	}
	template := &domain.Template{CoachID: actor.ID, Name: name, Description: description}
	if _, err := s.deps.Templates.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// GetTree loads the whole program with four list queries and nests the rows
// in memory. Rows whose parent is gone are dropped.
func (s *programService) GetTree(ctx context.Context, actor Actor, ref domain.ProgramRef) (*ProgramTree, error) {
	p, err := s.loader.forView(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	weeks, err := s.deps.Tree.Weeks.ListByProgram(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	days, err := s.deps.Tree.Days.ListByProgram(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.deps.Tree.Exercises.ListByProgram(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	sets, err := s.deps.Tree.Sets.ListByProgram(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	setsByExercise := make(map[primitive.ObjectID][]domain.Set)
	for _, set := range sets {
		setsByExercise[set.ExerciseID] = append(setsByExercise[set.ExerciseID], set)
	}
	exercisesByDay := make(map[primitive.ObjectID][]ExerciseNode)
	for _, e := range exercises {
		children := setsByExercise[e.ID]
		sort.SliceStable(children, func(i, j int) bool { return children[i].Order < children[j].Order })
		exercisesByDay[e.DayID] = append(exercisesByDay[e.DayID], ExerciseNode{Exercise: e, Sets: nonNil(children)})
	}
	daysByWeek := make(map[primitive.ObjectID][]DayNode)
	for _, d := range days {
		children := exercisesByDay[d.ID]
		sort.SliceStable(children, func(i, j int) bool { return children[i].Order < children[j].Order })
		daysByWeek[d.WeekID] = append(daysByWeek[d.WeekID], DayNode{Day: d, Exercises: nonNil(children)})
	}
	tree := &ProgramTree{Block: p.Block, Template: p.Template, Weeks: make([]WeekNode, 0, len(weeks))}
	sort.SliceStable(weeks, func(i, j int) bool { return weeks[i].WeekNumber < weeks[j].WeekNumber })
	for _, w := range weeks {
		children := daysByWeek[w.ID]
		sort.SliceStable(children, func(i, j int) bool { return children[i].DayNumber < children[j].DayNumber })
		tree.Weeks = append(tree.Weeks, WeekNode{Week: w, Days: nonNil(children)})
	}
	return tree, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *programService) ListBlocks(ctx context.Context, actor Actor, athleteID *primitive.ObjectID) ([]domain.Block, error) {
	switch {
	case actor.IsAthlete():
		return s.deps.Blocks.ListByAthlete(ctx, actor.ID)
	case athleteID != nil:
		return s.deps.Blocks.ListByCoachAndAthlete(ctx, actor.ID, *athleteID)
	default:
		return s.deps.Blocks.ListByCoach(ctx, actor.ID)
	}
}

func (s *programService) ListTemplates(ctx context.Context, actor Actor) ([]domain.Template, error) {
	if !actor.IsCoach() {
		return nil, ErrCoachOnly
	}
	return s.deps.Templates.ListByCoach(ctx, actor.ID)
}

// UpdateBlock edits metadata. A changed start date moves every scheduled day
// date with it; dates the coach set by hand stay.
func (s *programService) UpdateBlock(ctx context.Context, actor Actor, id primitive.ObjectID, update ProgramUpdate) (*domain.Block, error) {
	update.Name = strings.TrimSpace(update.Name)
	if update.Name == "" {
		return nil, fmt.Errorf("%w: block name is required", ErrValidationFailed)
	}
	if err := validDateRange(update.StartDate, update.EndDate); err != nil {
		return nil, err
	}
	p, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindBlock, ID: id})
	if err != nil {
		return nil, err
	}
	block := p.Block
	startChanged := !sameDate(block.StartDate, update.StartDate)
	block.Name = update.Name
	block.Description = update.Description
	block.StartDate = update.StartDate
	block.EndDate = update.EndDate
	if err := s.deps.Blocks.Update(ctx, block); err != nil {
		return nil, notFound(err, ErrBlockNotFound)
	}
	if startChanged {
		p.StartDate = block.StartDate
		if err := s.keeper.reschedule(ctx, p); err != nil {
			return nil, fmt.Errorf("reschedule block: %w", err)
		}
	}
	return block, nil
}

func (s *programService) UpdateTemplate(ctx context.Context, actor Actor, id primitive.ObjectID, update ProgramUpdate) (*domain.Template, error) {
	update.Name = strings.TrimSpace(update.Name)
	if update.Name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidationFailed)
	}
	p, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindTemplate, ID: id})
	if err != nil {
		return nil, err
	}
	p.Template.Name = update.Name
	p.Template.Description = update.Description
	if err := s.deps.Templates.Update(ctx, p.Template); err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	return p.Template, nil
}

func (s *programService) DeleteProgram(ctx context.Context, actor Actor, ref domain.ProgramRef) error {
	if _, err := s.loader.forEdit(ctx, actor, ref); err != nil {
		return err
	}
	return s.keeper.deleteProgram(ctx, ref)
}

// DuplicateBlock copies a block, by default for the same athlete and dates.
func (s *programService) DuplicateBlock(ctx context.Context, actor Actor, blockID primitive.ObjectID, opts CopyOptions) (*domain.Block, error) {
	src, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindBlock, ID: blockID})
	if err != nil {
		return nil, err
	}
	athleteID := src.AthleteID
	if opts.AthleteID != nil {
		athleteID = *opts.AthleteID
	}
	block := &domain.Block{
		CoachID:     actor.ID,
		AthleteID:   athleteID,
		Name:        copyName(opts.Name, src.Block.Name),
		Description: src.Block.Description,
		StartDate:   src.Block.StartDate,
		EndDate:     src.Block.EndDate,
		TemplateID:  src.Block.TemplateID,
	}
	return s.copyIntoBlock(ctx, actor, "block", src, block, opts.StartDate)
}

// AssignTemplate instantiates a template as a block for an athlete.
func (s *programService) AssignTemplate(ctx context.Context, actor Actor, templateID primitive.ObjectID, opts CopyOptions) (*domain.Block, error) {
	if opts.AthleteID == nil {
		return nil, fmt.Errorf("%w: athleteId is required", ErrValidationFailed)
	}
	src, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindTemplate, ID: templateID})
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = src.Template.Name
	}
	tid := src.Ref.ID
	block := &domain.Block{
		CoachID:     actor.ID,
		AthleteID:   *opts.AthleteID,
		Name:        name,
		Description: src.Template.Description,
		TemplateID:  &tid,
	}
	return s.copyIntoBlock(ctx, actor, "assign", src, block, opts.StartDate)
}

// copyIntoBlock writes block and copies the tree of src under it. A new start
// date replaces the block's dates and recomputes the end from the week count.
func (s *programService) copyIntoBlock(ctx context.Context, actor Actor, kind string, src *program, block *domain.Block, start *time.Time) (*domain.Block, error) {
	if err := s.requireAthlete(ctx, actor, block.AthleteID); err != nil {
		return nil, err
	}
	weeks, err := s.deps.Tree.Weeks.ListByProgram(ctx, src.Ref.ID)
	if err != nil {
		return nil, err
	}
	if start != nil {
		block.StartDate = start
		block.EndDate = endDate(*start, weeks)
	}

	err = s.copier.run(ctx, kind, func(j *copyJournal) error {
		id, err := s.deps.Blocks.Create(ctx, block)
		track(&j.blocks, id)
		if err != nil {
			return fmt.Errorf("create block: %w", err)
		}
		dst := copyTarget{ref: domain.ProgramRef{Kind: domain.KindBlock, ID: id}, start: block.StartDate}
		_, err = s.copier.copyWeeks(ctx, j, weeks, dst, func(w domain.Week) int { return w.WeekNumber })
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"copy": kind, "from": src.Ref.ID.Hex(), "block": block.ID.Hex()}).Infoln("block created from copy")
	return block, nil
}

func (s *programService) SaveBlockAsTemplate(ctx context.Context, actor Actor, blockID primitive.ObjectID, name string) (*domain.Template, error) {
	src, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindBlock, ID: blockID})
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = src.Block.Name
	}
	template := &domain.Template{CoachID: actor.ID, Name: name, Description: src.Block.Description}
	return s.copyIntoTemplate(ctx, "save_template", src, template)
}

func (s *programService) DuplicateTemplate(ctx context.Context, actor Actor, templateID primitive.ObjectID, name string) (*domain.Template, error) {
	src, err := s.loader.forEdit(ctx, actor, domain.ProgramRef{Kind: domain.KindTemplate, ID: templateID})
	if err != nil {
		return nil, err
	}
	template := &domain.Template{
		CoachID:     actor.ID,
		Name:        copyName(name, src.Template.Name),
		Description: src.Template.Description,
	}
	return s.copyIntoTemplate(ctx, "template", src, template)
}

func (s *programService) copyIntoTemplate(ctx context.Context, kind string, src *program, template *domain.Template) (*domain.Template, error) {
	err := s.copier.run(ctx, kind, func(j *copyJournal) error {
		id, err := s.deps.Templates.Create(ctx, template)
		track(&j.templates, id)
		if err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		dst := copyTarget{ref: domain.ProgramRef{Kind: domain.KindTemplate, ID: id}}
		return s.copier.copyProgram(ctx, j, src.Ref.ID, dst)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"copy": kind, "from": src.Ref.ID.Hex(), "template": template.ID.Hex()}).Infoln("template created from copy")
	return template, nil
}

func copyName(requested, source string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return source + copySuffix
}

// endDate is the last calendar day of the highest-numbered week.
func endDate(start time.Time, weeks []domain.Week) *time.Time {
	last := 0
	for _, w := range weeks {
		if w.WeekNumber > last {
			last = w.WeekNumber
		}
	}
	if last == 0 {
		return nil
	}
	end := domain.ScheduledDate(start, last, 7)
	return &end
}

func validDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end date is before start date", ErrValidationFailed)
	}
	return nil
}
