package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Day is one training session inside a week.
type Day struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	ProgramKind ProgramKind        `bson:"programKind" json:"programKind"`
	WeekID      primitive.ObjectID `bson:"weekId" json:"weekId"`
	DayNumber   int                `bson:"dayNumber" json:"dayNumber"` // 1-based within the week
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Date        *time.Time         `bson:"date,omitempty" json:"date,omitempty"` // only set on blocks with a start date
	// DateOverridden marks a date the coach picked by hand; rescheduling keeps it.
	DateOverridden bool `bson:"dateOverridden,omitempty" json:"dateOverridden,omitempty"`

	// Athlete tracking, never copied.
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	Deleted   bool       `bson:"deleted" json:"-"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (d *Day) Program() ProgramRef {
	return ProgramRef{Kind: d.ProgramKind, ID: d.ProgramID}
}

// ScheduledDate computes the calendar date of a day given the block start.
func ScheduledDate(start time.Time, weekNumber, dayNumber int) time.Time {
	return start.AddDate(0, 0, 7*(weekNumber-1)+(dayNumber-1))
}
