package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about a form-check video an athlete attached to a set.
// The file itself lives in S3.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SetID       primitive.ObjectID `bson:"setId" json:"setId"`
	BlockID     primitive.ObjectID `bson:"blockId" json:"blockId"`
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // denormalized for access checks
	ObjectKey   string             `bson:"objectKey" json:"-"`
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
