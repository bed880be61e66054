package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Set holds the coach's prescription and, once logged, what the athlete actually did.
type Set struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	ProgramKind ProgramKind        `bson:"programKind" json:"programKind"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order       int                `bson:"order" json:"order"`

	Reps    *int     `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight  *float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	RPE     *float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`
	Percent *float64 `bson:"percent,omitempty" json:"percent,omitempty"` // % of 1RM
	Notes   string   `bson:"notes,omitempty" json:"notes,omitempty"`

	// Athlete log, never copied.
	ActualReps    *int                `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	ActualWeight  *float64            `bson:"actualWeight,omitempty" json:"actualWeight,omitempty"`
	ActualRPE     *float64            `bson:"actualRpe,omitempty" json:"actualRpe,omitempty"`
	AthleteNotes  string              `bson:"athleteNotes,omitempty" json:"athleteNotes,omitempty"`
	Completed     bool                `bson:"completed" json:"completed"`
	LoggedAt      *time.Time          `bson:"loggedAt,omitempty" json:"loggedAt,omitempty"`
	VideoUploadID *primitive.ObjectID `bson:"videoUploadId,omitempty" json:"videoUploadId,omitempty"`

	Deleted   bool       `bson:"deleted" json:"-"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (s *Set) Program() ProgramRef {
	return ProgramRef{Kind: s.ProgramKind, ID: s.ProgramID}
}

// ClearLog resets the logged values. The video has its own lifecycle and stays.
func (s *Set) ClearLog() {
	s.ActualReps = nil
	s.ActualWeight = nil
	s.ActualRPE = nil
	s.AthleteNotes = ""
	s.Completed = false
	s.LoggedAt = nil
}

// EstimatedOneRepMax uses the Epley formula on the logged values.
// Returns 0 when the set has no usable log.
func (s *Set) EstimatedOneRepMax() float64 {
	if s.ActualReps == nil || s.ActualWeight == nil || *s.ActualReps <= 0 {
		return 0
	}
	if *s.ActualReps == 1 {
		return *s.ActualWeight
	}
	return *s.ActualWeight * (1 + float64(*s.ActualReps)/30)
}
