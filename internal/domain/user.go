package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCoach || r == RoleAthlete
}

// LinkField names one of the id arrays kept on a user document.
// They are only ever mutated with $addToSet / $pull.
type LinkField string

const (
	LinkPendingRequests LinkField = "pendingRequests" // incoming, awaiting this user's answer
	LinkSentRequests    LinkField = "sentRequests"    // outgoing, awaiting the other side
	LinkCoaches         LinkField = "coaches"         // athlete side of an accepted pairing
	LinkAthletes        LinkField = "athletes"        // coach side of an accepted pairing
)

// User represents a user in the system (either a Coach or an Athlete).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameLower    string             `bson:"nameLower" json:"-"`       // lower-cased copy used for prefix search
	Username     string             `bson:"username" json:"username"` // unique, stored lower-cased
	Email        string             `bson:"email" json:"email"`       // unique, stored lower-cased
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Bio          string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Sport        string             `bson:"sport,omitempty" json:"sport,omitempty"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	PendingRequests []primitive.ObjectID `bson:"pendingRequests,omitempty" json:"pendingRequests,omitempty"`
	SentRequests    []primitive.ObjectID `bson:"sentRequests,omitempty" json:"sentRequests,omitempty"`
	Coaches         []primitive.ObjectID `bson:"coaches,omitempty" json:"coaches,omitempty"`
	Athletes        []primitive.ObjectID `bson:"athletes,omitempty" json:"athletes,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

// Links returns the id array stored under field.
func (u *User) Links(field LinkField) []primitive.ObjectID {
	switch field {
	case LinkPendingRequests:
		return u.PendingRequests
	case LinkSentRequests:
		return u.SentRequests
	case LinkCoaches:
		return u.Coaches
	case LinkAthletes:
		return u.Athletes
	}
	return nil
}

// HasLink reports whether id is present in the given array.
func (u *User) HasLink(field LinkField, id primitive.ObjectID) bool {
	for _, linked := range u.Links(field) {
		if linked == id {
			return true
		}
	}
	return false
}

// ConnectedTo reports whether u and the other user are paired as coach and athlete.
func (u *User) ConnectedTo(id primitive.ObjectID) bool {
	return u.HasLink(LinkCoaches, id) || u.HasLink(LinkAthletes, id)
}

// ConnectionField is the array on u that holds its accepted partners.
func (u *User) ConnectionField() LinkField {
	if u.IsCoach() {
		return LinkAthletes
	}
	return LinkCoaches
}
