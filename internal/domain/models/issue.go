// internal/domain/models/issue.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Canonical issue statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Issue kinds. Tasks and issues share one collection and one shape.
const (
	KindIssue = "issue"
	KindTask  = "task"
)

// Issue is an issue or a task inside a project.
//
// Status, IsCritical and IsApproved are independent; every combination is valid.
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID `bson:"project_id" json:"projectId"`
	Kind        string             `bson:"kind" json:"kind"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"`

	IsCritical       bool `bson:"is_critical" json:"isCritical"`
	IsApproved       bool `bson:"is_approved" json:"isApproved"`
	IsApprovalNeeded bool `bson:"is_approval_needed" json:"isApprovalNeeded"`

	CreatorID   primitive.ObjectID `bson:"creator_id" json:"creatorId"`
	CreatorName string             `bson:"creator_name" json:"creatorName"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
