package main

import (
	"context"
	"fmt"
	"time"

	"alcyxob/blockcoach/internal/api"
	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const demoPassword = "blockcoach-demo"

var (
	seedCoaches          int
	seedAthletesPerCoach int
	seedWeeks            int
	seedRandom           int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo coaches, athletes and templates",
	Long: `Registers demo coaches, connects each to a few athletes, builds a
template per coach from a small movement library, and assigns it as a
block starting next Monday. Every account uses the password "` + demoPassword + `".`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCoaches, "coaches", 2, "Number of coaches")
	seedCmd.Flags().IntVar(&seedAthletesPerCoach, "athletes", 3, "Athletes per coach")
	seedCmd.Flags().IntVar(&seedWeeks, "weeks", 4, "Weeks per template")
	seedCmd.Flags().Int64Var(&seedRandom, "random-seed", 0, "gofakeit seed, 0 for a random one")
}

var demoMovements = []service.MovementInput{
	{Name: "Back Squat", MuscleGroup: "Legs", Difficulty: "Medium", Applicability: "Gym"},
	{Name: "Bench Press", MuscleGroup: "Chest", Difficulty: "Medium", Applicability: "Gym"},
	{Name: "Deadlift", MuscleGroup: "Back", Difficulty: "Advanced", Applicability: "Gym"},
	{Name: "Overhead Press", MuscleGroup: "Shoulders", Difficulty: "Medium", Applicability: "Gym"},
	{Name: "Pull Up", MuscleGroup: "Back", Difficulty: "Novice", Applicability: "Home"},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		log.Warn("seeding the memory store; the data disappears when this command exits")
	}
	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gofakeit.Seed(seedRandom)
	ctx := cmd.Context()
	start := nextMonday(time.Now().UTC())

	for i := 0; i < seedCoaches; i++ {
		coach, err := registerDemo(ctx, a.services.Auth, domain.RoleCoach)
		if err != nil {
			return err
		}
		coachActor := service.Actor{ID: coach.ID, Role: coach.Role}

		template, err := seedTemplate(ctx, a.services, coachActor)
		if err != nil {
			return fmt.Errorf("template for %s: %w", coach.Username, err)
		}

		for j := 0; j < seedAthletesPerCoach; j++ {
			athlete, err := registerDemo(ctx, a.services.Auth, domain.RoleAthlete)
			if err != nil {
				return err
			}
			if _, err := a.services.Connections.SendRequest(ctx, coachActor, athlete.ID); err != nil {
				return fmt.Errorf("request %s: %w", athlete.Username, err)
			}
			athleteActor := service.Actor{ID: athlete.ID, Role: athlete.Role}
			if err := a.services.Connections.Accept(ctx, athleteActor, coach.ID); err != nil {
				return fmt.Errorf("accept %s: %w", coach.Username, err)
			}
			block, err := a.services.Programs.AssignTemplate(ctx, coachActor, template.ID, service.CopyOptions{
				AthleteID: &athlete.ID,
				Name:      fmt.Sprintf("%s: %s", template.Name, athlete.Name),
				StartDate: &start,
			})
			if err != nil {
				return fmt.Errorf("assign to %s: %w", athlete.Username, err)
			}
			log.WithFields(log.Fields{
				"athlete": athlete.Email,
				"block":   block.ID.Hex(),
			}).Info("athlete seeded")
		}
		log.WithFields(log.Fields{
			"coach":    coach.Email,
			"template": template.ID.Hex(),
		}).Info("coach seeded")
	}
	log.Infof("seed complete; log in with password %q", demoPassword)
	return nil
}

func registerDemo(ctx context.Context, auth service.AuthService, role domain.Role) (*domain.User, error) {
	user, err := auth.Register(ctx, service.RegisterInput{
		Name:     gofakeit.Name(),
		Username: fmt.Sprintf("%s%d", role, gofakeit.Number(100000, 999999)),
		Email:    gofakeit.Email(),
		Password: demoPassword,
		Role:     role,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", role, err)
	}
	return user, nil
}

// seedTemplate builds a full-body template: three days a week, three movements
// a day, with weights climbing each week.
func seedTemplate(ctx context.Context, s api.Services, coach service.Actor) (*domain.Template, error) {
	movementIDs := make([]primitive.ObjectID, 0, len(demoMovements))
	for _, in := range demoMovements {
		in.Description = gofakeit.Sentence(8)
		m, err := s.Movements.CreateMovement(ctx, coach, in)
		if err != nil {
			return nil, err
		}
		movementIDs = append(movementIDs, m.ID)
	}

	template, err := s.Programs.CreateTemplate(ctx, coach, fmt.Sprintf("%s Strength", gofakeit.Adjective()), gofakeit.Sentence(10))
	if err != nil {
		return nil, err
	}
	ref := domain.ProgramRef{Kind: domain.KindTemplate, ID: template.ID}

	for w := 1; w <= seedWeeks; w++ {
		week, err := s.Tree.AddWeek(ctx, coach, ref, service.WeekInput{Name: fmt.Sprintf("Week %d", w)})
		if err != nil {
			return nil, err
		}
		for d := 0; d < 3; d++ {
			day, err := s.Tree.AddDay(ctx, coach, week.ID, service.DayInput{Name: fmt.Sprintf("Day %c", 'A'+d)})
			if err != nil {
				return nil, err
			}
			for e := 0; e < 3; e++ {
				idx := (d + e) % len(movementIDs)
				exercise, err := s.Tree.AddExercise(ctx, coach, day.ID, service.ExerciseInput{
					Name:       demoMovements[idx].Name,
					MovementID: &movementIDs[idx],
				})
				if err != nil {
					return nil, err
				}
				for set := 0; set < 3; set++ {
					reps := 5
					weight := float64(60 + 20*idx + 5*(w-1))
					rpe := 7.0 + 0.5*float64(set)
					if _, err := s.Tree.AddSet(ctx, coach, exercise.ID, service.SetInput{Reps: &reps, Weight: &weight, RPE: &rpe}); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return template, nil
}

// nextMonday returns the first Monday strictly after t, at UTC midnight.
func nextMonday(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
