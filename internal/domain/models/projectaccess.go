// internal/domain/models/projectaccess.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Modules of a project that can carry a per-user restriction.
const (
	ModuleDiscussion = "discussion"
	ModuleTasks      = "tasks"
	ModuleFiles      = "files"
	ModuleReports    = "reports"
)

// AllModules lists every restrictable module in display order.
var AllModules = []string{ModuleDiscussion, ModuleTasks, ModuleFiles, ModuleReports}

// ProjectAccess is a restriction placed on one user for one module of a project.
// Exactly one document per (project_id, user_id, module).
//
// The flag names are historical: CanView == true means the user is blocked
// from viewing the module, CanReply == true blocks replying and CanEdit == true
// blocks editing. The mobile client and the stored documents both use these
// names, so they are kept as-is.
type ProjectAccess struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"projectId"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Module    string             `bson:"module" json:"module"`

	CanView  bool `bson:"can_view" json:"canView"`
	CanReply bool `bson:"can_reply" json:"canReply"`
	CanEdit  bool `bson:"can_edit" json:"canEdit"`

	SetBy     primitive.ObjectID `bson:"set_by,omitempty" json:"setBy,omitempty"`
	BatchID   string             `bson:"batch_id,omitempty" json:"batchId,omitempty"` // shared by records written in one bulk request
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
