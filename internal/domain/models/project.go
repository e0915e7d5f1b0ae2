// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project groups issues, tasks, files and a discussion thread.
//
// The owner and the IDs in AdminIDs are project admins: they manage members
// and access restrictions and are never subject to restrictions themselves.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"projectName"`
	NameCI      string               `bson:"name_ci" json:"-"`
	Description string               `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"ownerId"`
	AdminIDs    []primitive.ObjectID `bson:"admin_ids,omitempty" json:"adminIds,omitempty"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids" json:"memberIds"`
	Status      string               `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether userID owns or administers the project.
func (p Project) IsAdmin(userID primitive.ObjectID) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID belongs to the project in any capacity.
func (p Project) IsMember(userID primitive.ObjectID) bool {
	if p.IsAdmin(userID) {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
