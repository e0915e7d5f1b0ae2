// internal/app/features/projects/members.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Project roles reported in the member list.
const (
	roleOwner  = "owner"
	roleAdmin  = "admin"
	roleMember = "member"
)

type memberRow struct {
	ID          primitive.ObjectID `json:"id"`
	FullName    string             `json:"fullName"`
	Email       string             `json:"email"`
	ProjectRole string             `json:"projectRole"`
}

func projectRole(p models.Project, uid primitive.ObjectID) string {
	switch {
	case p.OwnerID == uid:
		return roleOwner
	case p.IsAdmin(uid):
		return roleAdmin
	}
	return roleMember
}

// ServeMembers handles GET /projects/{projectID}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}

	ids := append([]primitive.ObjectID{p.OwnerID}, p.MemberIDs...)
	ids = append(ids, p.AdminIDs...)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		apierr.Internal(w, h.Log, "list project members", err, zap.String("project_id", p.ID.Hex()))
		return
	}

	rows := make([]memberRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, memberRow{ID: u.ID, FullName: u.FullName, Email: u.Email, ProjectRole: projectRole(p, u.ID)})
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"members": rows})
}

// HandleAddMember handles POST /projects/{projectID}/members {"userId": "..."}.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	uid, err := payload.Member(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.userExists(ctx, w, uid) {
		return
	}
	if err := h.Projects.AddMember(ctx, p.ID, uid); err != nil {
		h.writeStoreError(w, "add member", err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	h.Audit.MemberAdded(ctx, r, actor, p.ID, uid)
	h.writeProject(ctx, w, r, p)
}

// HandleRemoveMember handles DELETE /projects/{projectID}/members/{userID}.
// Managers can remove anyone but the owner; members can remove themselves.
// The member's restrictions are removed with them.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}
	target, ok := shared.PathID(w, r, "userID")
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if target != uid && !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only project admins can remove other members")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Projects.RemoveMember(ctx, p.ID, target); err != nil {
		h.writeStoreError(w, "remove member", err)
		return
	}
	if _, err := h.Access.DeleteForUser(ctx, p.ID, target); err != nil {
		h.Log.Warn("remove member: restrictions not cleared", zap.Error(err),
			zap.String("project_id", p.ID.Hex()), zap.String("user_id", target.Hex()))
	}
	h.Cache.Invalidate(p.ID, target)
	h.Audit.MemberRemoved(ctx, r, uid, p.ID, target)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGrantAdmin handles PUT /projects/{projectID}/admins/{userID}.
func (h *Handler) HandleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// HandleRevokeAdmin handles DELETE /projects/{projectID}/admins/{userID}.
func (h *Handler) HandleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

// setAdmin changes project-admin rights. Only the owner or a system admin may.
func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request, admin bool) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if p.OwnerID != uid && !authz.IsAdmin(r) {
		apierr.Forbidden(w, "only the project owner can change project admins")
		return
	}
	target, ok := shared.PathID(w, r, "userID")
	if !ok {
		return
	}
	if target == p.OwnerID {
		apierr.Conflict(w, "the owner is always a project admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if admin && !h.userExists(ctx, w, target) {
		return
	}
	if err := h.Projects.SetAdmin(ctx, p.ID, target, admin); err != nil {
		h.writeStoreError(w, "set project admin", err)
		return
	}
	h.Cache.Invalidate(p.ID, target)
	h.writeProject(ctx, w, r, p)
}

func (h *Handler) userExists(ctx context.Context, w http.ResponseWriter, uid primitive.ObjectID) bool {
	if _, err := h.Users.GetByID(ctx, uid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierr.NotFound(w, "user not found")
			return false
		}
		apierr.Internal(w, h.Log, "load user", err, zap.String("user_id", uid.Hex()))
		return false
	}
	return true
}
