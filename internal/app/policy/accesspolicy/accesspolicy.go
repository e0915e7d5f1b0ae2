// Package accesspolicy resolves per-user, per-module project restrictions.
//
// Rules:
//   - No restriction record for (user, module) means full access.
//   - A record's flags are returned verbatim by ResolveAccess. In a stored
//     record, CanView/CanReply/CanEdit == true means that action is blocked.
//   - IsBlocked is the one place the service interprets a record; every gate
//     in the HTTP layer goes through it.
//   - Project admins are exempt; callers check that before consulting records.
package accesspolicy

import (
	"strings"

	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessFlags is the permission tuple returned to the client.
type AccessFlags struct {
	CanView  bool `json:"canView"`
	CanReply bool `json:"canReply"`
	CanEdit  bool `json:"canEdit"`
}

// FullAccess is returned when no restriction applies.
var FullAccess = AccessFlags{CanView: true, CanReply: true, CanEdit: true}

// Action is one of the three restrictable actions on a module.
type Action string

const (
	ActionView  Action = "view"
	ActionReply Action = "reply"
	ActionEdit  Action = "edit"
)

// Lookup returns the restriction for (userID, module), if any.
func Lookup(records []models.ProjectAccess, userID primitive.ObjectID, module string) (models.ProjectAccess, bool) {
	for _, rec := range records {
		if rec.UserID == userID && rec.Module == module {
			return rec, true
		}
	}
	return models.ProjectAccess{}, false
}

// ResolveAccess returns the flags for userID on module. With no matching
// record it returns FullAccess; otherwise the record's flags unchanged.
func ResolveAccess(records []models.ProjectAccess, userID primitive.ObjectID, module string) AccessFlags {
	rec, ok := Lookup(records, userID, module)
	if !ok {
		return FullAccess
	}
	return AccessFlags{
		CanView:  rec.CanView,
		CanReply: rec.CanReply,
		CanEdit:  rec.CanEdit,
	}
}

// ResolveBulkAccess builds one record per (user, module) pair, each carrying
// settings. Existing records are not consulted; the store upserts them.
func ResolveBulkAccess(userIDs []primitive.ObjectID, modules []string, settings AccessFlags) []models.ProjectAccess {
	out := make([]models.ProjectAccess, 0, len(userIDs)*len(modules))
	for _, uid := range userIDs {
		for _, m := range modules {
			out = append(out, models.ProjectAccess{
				UserID:   uid,
				Module:   m,
				CanView:  settings.CanView,
				CanReply: settings.CanReply,
				CanEdit:  settings.CanEdit,
			})
		}
	}
	return out
}

// IsBlocked reports whether a restriction record blocks action for userID on module.
func IsBlocked(records []models.ProjectAccess, userID primitive.ObjectID, module string, action Action) bool {
	rec, ok := Lookup(records, userID, module)
	if !ok {
		return false
	}
	switch action {
	case ActionView:
		return rec.CanView
	case ActionReply:
		return rec.CanReply
	case ActionEdit:
		return rec.CanEdit
	}
	return false
}

// ParseModule canonicalises a module name from a request.
func ParseModule(s string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(s))
	for _, known := range models.AllModules {
		if m == known {
			return m, nil
		}
	}
	return "", inputval.Invalid("module", "must be one of %s", strings.Join(models.AllModules, ", "))
}

// ParseModules parses a list of module names, dropping duplicates.
func ParseModules(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		m, err := ParseModule(s)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

