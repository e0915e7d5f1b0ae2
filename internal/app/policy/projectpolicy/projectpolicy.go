// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"context"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordSource returns a user's restriction records in a project.
// *accesscache.Cache satisfies it.
type RecordSource interface {
	Records(ctx context.Context, projectID, userID primitive.ObjectID) ([]models.ProjectAccess, error)
}

// CanView reports whether the current request user can see the project:
// system admins always can, everyone else must belong to it.
func CanView(r *http.Request, p models.Project) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == authz.RoleAdmin {
		return true
	}
	return p.IsMember(uid)
}

// CanManage reports whether the current request user can manage the project
// (members, restrictions, approvals, settings): system admins, the owner
// and project admins.
func CanManage(r *http.Request, p models.Project) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == authz.RoleAdmin {
		return true
	}
	return p.IsAdmin(uid)
}

// Allowed reports whether the current request user may perform action on
// module of the project. Managers are never restricted; other members are
// blocked only by a restriction record. Returns an error if the records
// cannot be loaded, allowing callers to distinguish "blocked" (false, nil)
// from "database error" (false, err).
func Allowed(ctx context.Context, src RecordSource, r *http.Request, p models.Project, module string, action accesspolicy.Action) (bool, error) {
	if !CanView(r, p) {
		return false, nil
	}
	if CanManage(r, p) {
		return true, nil
	}
	_, _, uid, _ := authz.UserCtx(r)
	recs, err := src.Records(ctx, p.ID, uid)
	if err != nil {
		return false, err
	}
	return !accesspolicy.IsBlocked(recs, uid, module, action), nil
}

// Effective returns the flags to report to the current user for module.
// Managers always get full access; everyone else gets ResolveAccess.
func Effective(ctx context.Context, src RecordSource, r *http.Request, p models.Project, module string) (accesspolicy.AccessFlags, error) {
	if CanManage(r, p) {
		return accesspolicy.FullAccess, nil
	}
	_, _, uid, _ := authz.UserCtx(r)
	recs, err := src.Records(ctx, p.ID, uid)
	if err != nil {
		return accesspolicy.AccessFlags{}, err
	}
	return accesspolicy.ResolveAccess(recs, uid, module), nil
}
