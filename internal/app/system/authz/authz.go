// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/workhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. ok=true means a valid, authenticated user
// with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is a system admin.
// System admins may manage every project.
func IsAdmin(r *http.Request) bool {
	return HasRole(r, RoleAdmin)
}

// HasAnyRole reports whether the signed-in user holds one of roles.
// Role names are compared trimmed and case-folded.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func HasRole(r *http.Request, role string) bool {
	return HasAnyRole(r, role)
}
