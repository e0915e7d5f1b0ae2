package metricsstore

import (
	"context"

	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatusCounts tallies issues or tasks by canonical status.
type StatusCounts struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Other      int64 `json:"other"`
	Critical   int64 `json:"openCritical"`
}

// Total is the sum of all statuses.
func (s StatusCounts) Total() int64 {
	return s.Pending + s.InProgress + s.Completed + s.Other
}

func (s *StatusCounts) add(status string, critical bool, n int64) {
	switch status {
	case models.StatusPending:
		s.Pending += n
	case models.StatusInProgress:
		s.InProgress += n
	case models.StatusCompleted:
		s.Completed += n
	default:
		s.Other += n
	}
	if critical && status != models.StatusCompleted {
		s.Critical += n
	}
}

// Counts is the set of totals shown on a project summary.
type Counts struct {
	Members      int64        `json:"members"`
	Restrictions int64        `json:"restrictions"`
	Messages     int64        `json:"messages"`
	Issues       StatusCounts `json:"issues"`
	Tasks        StatusCounts `json:"tasks"`
}

// FetchProjectCounts returns the summary counts for a project.
// Intentionally tolerant: on error it returns 0 for that counter.
// Members counts the distinct owner, admins and members.
func FetchProjectCounts(ctx context.Context, db *mongo.Database, p models.Project) Counts {
	var out Counts

	seen := map[primitive.ObjectID]struct{}{p.OwnerID: {}}
	for _, id := range p.AdminIDs {
		seen[id] = struct{}{}
	}
	for _, id := range p.MemberIDs {
		seen[id] = struct{}{}
	}
	out.Members = int64(len(seen))

	// restrictions
	if n, err := db.Collection("project_access").CountDocuments(ctx, bson.M{"project_id": p.ID}); err == nil {
		out.Restrictions = n
	}

	// discussion
	if n, err := db.Collection("discussion_messages").CountDocuments(ctx, bson.M{"project_id": p.ID}); err == nil {
		out.Messages = n
	}

	// issues and tasks by kind, status and critical
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": p.ID}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"kind": "$kind", "status": "$status", "critical": "$is_critical"},
			"n":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := db.Collection("issues").Aggregate(ctx, pipeline)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID struct {
			Kind     string `bson:"kind"`
			Status   string `bson:"status"`
			Critical bool   `bson:"critical"`
		} `bson:"_id"`
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return out
	}
	for _, r := range rows {
		if r.ID.Kind == models.KindTask {
			out.Tasks.add(r.ID.Status, r.ID.Critical, r.N)
		} else {
			out.Issues.add(r.ID.Status, r.ID.Critical, r.N)
		}
	}

	return out
}
