package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a planned exercise inside a day. Its prescription lives in Sets.
type Exercise struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProgramID   primitive.ObjectID  `bson:"programId" json:"programId"`
	ProgramKind ProgramKind         `bson:"programKind" json:"programKind"`
	DayID       primitive.ObjectID  `bson:"dayId" json:"dayId"`
	Order       int                 `bson:"order" json:"order"`
	Name        string              `bson:"name" json:"name"`
	MovementID  *primitive.ObjectID `bson:"movementId,omitempty" json:"movementId,omitempty"` // optional link into the coach's library
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Deleted     bool                `bson:"deleted" json:"-"`
	DeletedAt   *time.Time          `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (e *Exercise) Program() ProgramRef {
	return ProgramRef{Kind: e.ProgramKind, ID: e.ProgramID}
}
