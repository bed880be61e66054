package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramKind tells which root collection a tree node belongs to.
type ProgramKind string

const (
	KindBlock    ProgramKind = "block"
	KindTemplate ProgramKind = "template"
)

func (k ProgramKind) Valid() bool {
	return k == KindBlock || k == KindTemplate
}

// Block is a training plan assigned to one athlete by one coach.
type Block struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID  `bson:"coachId" json:"coachId"`
	AthleteID   primitive.ObjectID  `bson:"athleteId" json:"athleteId"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	StartDate   *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	TemplateID  *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"` // template this block was instantiated from
	Deleted     bool                `bson:"deleted" json:"-"`
	DeletedAt   *time.Time          `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Template is a reusable block definition owned by a coach, not tied to an athlete or dates.
type Template struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Deleted     bool               `bson:"deleted" json:"-"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgramRef identifies the root of a training tree.
type ProgramRef struct {
	Kind ProgramKind
	ID   primitive.ObjectID
}
