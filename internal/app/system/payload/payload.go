// Package payload turns loosely-shaped JSON request bodies into canonical
// records. The mobile client has sent the same field under several names over
// time (name vs issueTitle, userId vs user_id, project vs Project), and booleans
// sometimes arrive as strings. All of that is absorbed here so the rest of the
// service only ever sees one shape.
package payload

import (
	"strings"

	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMalformed is returned for bodies that are not a JSON object.
var ErrMalformed = &inputval.ValidationError{Message: "request body must be a JSON object"}

func parse(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, ErrMalformed
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return gjson.Result{}, ErrMalformed
	}
	return doc, nil
}

// first returns the first of paths present in doc.
func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func str(doc gjson.Result, paths ...string) string {
	return strings.TrimSpace(first(doc, paths...).String())
}

// flag reads a boolean that may arrive as true/false, "true"/"false" or 0/1.
// Missing values are false.
func flag(doc gjson.Result, paths ...string) bool {
	return first(doc, paths...).Bool()
}

// CanonicalStatus maps the spellings clients use to a canonical issue status.
// Unknown values are returned trimmed so nothing is lost; empty stays empty.
func CanonicalStatus(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "pending":
		return models.StatusPending
	case "in progress", "inprogress":
		return models.StatusInProgress
	case "completed", "complete":
		return models.StatusCompleted
	}
	return strings.TrimSpace(s)
}

func isCanonicalStatus(s string) bool {
	return s == models.StatusPending || s == models.StatusInProgress || s == models.StatusCompleted
}

// Issue decodes an issue or task body. Missing fields take their zero values;
// a missing status is left empty for the caller to default. Creator and
// creation time are not read from the body; the handler sets them.
func Issue(raw []byte) (models.Issue, error) {
	doc, err := parse(raw)
	if err != nil {
		return models.Issue{}, err
	}
	return models.Issue{
		Kind:             strings.ToLower(str(doc, "kind", "type")),
		Title:            htmlsanitize.PlainText(str(doc, "title", "name", "issueTitle", "taskName")),
		Description:      htmlsanitize.PlainText(str(doc, "description", "issueDescription", "details")),
		Status:           CanonicalStatus(str(doc, "status")),
		IsCritical:       flag(doc, "isCritical", "is_critical", "critical"),
		IsApproved:       flag(doc, "isApproved", "is_approved"),
		IsApprovalNeeded: flag(doc, "isApprovalNeeded", "is_approval_needed", "approvalNeeded"),
	}, nil
}

// Status decodes {"status": "..."} and requires a canonical value.
func Status(raw []byte) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	s := CanonicalStatus(str(doc, "status"))
	if !isCanonicalStatus(s) {
		return "", inputval.Invalid("status", "must be Pending, In Progress or Completed")
	}
	return s, nil
}

// Critical decodes {"isCritical": bool}.
func Critical(raw []byte) (bool, error) {
	doc, err := parse(raw)
	if err != nil {
		return false, err
	}
	if !first(doc, "isCritical", "is_critical", "critical").Exists() {
		return false, inputval.Invalid("isCritical", "is required")
	}
	return flag(doc, "isCritical", "is_critical", "critical"), nil
}

// RestrictionInput is a single set/edit restriction request.
type RestrictionInput struct {
	UserID primitive.ObjectID
	Module string
	Flags  accesspolicy.AccessFlags
}

func restrictionFlags(doc gjson.Result) accesspolicy.AccessFlags {
	return accesspolicy.AccessFlags{
		CanView:  flag(doc, "canView", "can_view"),
		CanReply: flag(doc, "canReply", "can_reply"),
		CanEdit:  flag(doc, "canEdit", "can_edit"),
	}
}

// Restriction decodes a set-restriction body.
func Restriction(raw []byte) (RestrictionInput, error) {
	doc, err := parse(raw)
	if err != nil {
		return RestrictionInput{}, err
	}
	uid, err := inputval.ObjectID("userId", str(doc, "userId", "user_id", "user.id", "user._id"))
	if err != nil {
		return RestrictionInput{}, err
	}
	module, err := accesspolicy.ParseModule(str(doc, "module", "moduleName"))
	if err != nil {
		return RestrictionInput{}, err
	}
	return RestrictionInput{UserID: uid, Module: module, Flags: restrictionFlags(doc)}, nil
}

// Flags decodes only the three restriction flags (edit-restriction body).
func Flags(raw []byte) (accesspolicy.AccessFlags, error) {
	doc, err := parse(raw)
	if err != nil {
		return accesspolicy.AccessFlags{}, err
	}
	return restrictionFlags(doc), nil
}

// BulkInput is a bulk-set restriction request.
type BulkInput struct {
	UserIDs  []primitive.ObjectID
	Modules  []string
	Settings accesspolicy.AccessFlags
}

// BulkRestriction decodes {"userIds": [...], "modules": [...], "settings": {...}}.
// Flags may also appear at the top level instead of under settings.
func BulkRestriction(raw []byte) (BulkInput, error) {
	doc, err := parse(raw)
	if err != nil {
		return BulkInput{}, err
	}

	users := first(doc, "userIds", "user_ids", "users")
	if !users.IsArray() || len(users.Array()) == 0 {
		return BulkInput{}, inputval.Invalid("userIds", "must be a non-empty list")
	}
	var in BulkInput
	for _, u := range users.Array() {
		id := u.String()
		if u.IsObject() {
			id = str(u, "id", "_id", "userId")
		}
		oid, err := inputval.ObjectID("userIds", id)
		if err != nil {
			return BulkInput{}, err
		}
		in.UserIDs = append(in.UserIDs, oid)
	}

	mods := first(doc, "modules", "module")
	var names []string
	switch {
	case mods.IsArray():
		for _, m := range mods.Array() {
			names = append(names, m.String())
		}
	case mods.Exists():
		names = []string{mods.String()}
	}
	if len(names) == 0 {
		return BulkInput{}, inputval.Invalid("modules", "must be a non-empty list")
	}
	if in.Modules, err = accesspolicy.ParseModules(names); err != nil {
		return BulkInput{}, err
	}

	settings := doc.Get("settings")
	if !settings.IsObject() {
		settings = doc
	}
	in.Settings = restrictionFlags(settings)
	return in, nil
}

// ProjectInput is a create/update project request.
type ProjectInput struct {
	Name        string
	Description string
}

// projectName reads a project name from any of the shapes invites and
// project forms have used.
func projectName(doc gjson.Result) string {
	return str(doc, "projectName", "name", "project.projectName", "Project.projectName", "project.name", "Project.name")
}

// Project decodes a project body.
func Project(raw []byte) (ProjectInput, error) {
	doc, err := parse(raw)
	if err != nil {
		return ProjectInput{}, err
	}
	in := ProjectInput{
		Name:        htmlsanitize.PlainText(projectName(doc)),
		Description: htmlsanitize.PlainText(str(doc, "description", "projectDescription", "project.description", "Project.description")),
	}
	if in.Name == "" {
		return ProjectInput{}, inputval.Invalid("projectName", "is required")
	}
	return in, nil
}

// Member decodes an add-member body and returns the user id.
func Member(raw []byte) (primitive.ObjectID, error) {
	doc, err := parse(raw)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return inputval.ObjectID("userId", str(doc, "userId", "user_id", "memberId"))
}

// Message decodes a discussion post or edit body.
func Message(raw []byte) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	body := str(doc, "body", "message", "text", "content")
	if body == "" {
		return "", inputval.Invalid("body", "is required")
	}
	return body, nil
}

// LoginRequest is the body of the sign-in endpoints.
type LoginRequest struct {
	Email string
	Code  string
}

// Login decodes {"email": "...", "code": "..."}; code may be absent.
func Login(raw []byte) (LoginRequest, error) {
	doc, err := parse(raw)
	if err != nil {
		return LoginRequest{}, err
	}
	req := LoginRequest{
		Email: str(doc, "email", "loginId", "login_id"),
		Code:  str(doc, "code", "otp"),
	}
	if !inputval.IsValidEmail(req.Email) {
		return LoginRequest{}, inputval.Invalid("email", "a valid email address is required")
	}
	return req, nil
}

// ProjectStatus decodes {"status": "active"|"archived"}.
func ProjectStatus(raw []byte) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	s := strings.ToLower(str(doc, "status"))
	if s != "active" && s != "archived" {
		return "", inputval.Invalid("status", "must be active or archived")
	}
	return s, nil
}
