// internal/domain/movement.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movement is an entry in a coach's exercise library.
type Movement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // owner
	Name        string             `bson:"name" json:"name"`
	NameLower   string             `bson:"nameLower" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	MuscleGroup   string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`     // e.g. "Chest", "Legs", "Back"
	Technique     string `bson:"technique,omitempty" json:"technique,omitempty"`         // execution cues
	Applicability string `bson:"applicability,omitempty" json:"applicability,omitempty"` // e.g. "Home", "Gym"
	Difficulty    string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`       // e.g. "Novice", "Advanced"
	VideoURL      string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
