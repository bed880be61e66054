package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Week is the first level under a block or template.
type Week struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	ProgramKind ProgramKind        `bson:"programKind" json:"programKind"`
	WeekNumber  int                `bson:"weekNumber" json:"weekNumber"` // 1-based
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Deleted     bool               `bson:"deleted" json:"-"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (w *Week) Program() ProgramRef {
	return ProgramRef{Kind: w.ProgramKind, ID: w.ProgramID}
}
