// Package status holds the record lifecycle values shared by users and projects.
package status

import "github.com/dalemusser/workhub/internal/app/system/normalize"

const (
	Active   = "active"
	Disabled = "disabled" // users only
	Archived = "archived" // projects only
)

// IsValid reports whether s is a user status.
func IsValid(s string) bool {
	switch normalize.Status(s) {
	case Active, Disabled:
		return true
	}
	return false
}

// IsValidProject reports whether s is a project status.
func IsValidProject(s string) bool {
	switch normalize.Status(s) {
	case Active, Archived:
		return true
	}
	return false
}
