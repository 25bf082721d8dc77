package model

import (
	"slices"
	"time"
)

// Field names used as diff keys. These match the store's column names
// so a diff can be applied as a single partial UPDATE.
const (
	FieldTitle     = "title"
	FieldState     = "state"
	FieldLabels    = "labels"
	FieldAssignees = "assignees"
	FieldUpdatedAt = "updated_at"
)

// MutableFields lists every field the update path may overwrite, in
// storage column order.
var MutableFields = []string{
	FieldTitle,
	FieldState,
	FieldLabels,
	FieldAssignees,
	FieldUpdatedAt,
}

// ProtectedFields lists the fields the update path must never touch.
// An incoming payload may carry different values for them; the diff
// excludes them unconditionally.
var ProtectedFields = []string{
	"id",
	"number",
	"repository",
	"author",
	"created_at",
}

// IsMutableField reports whether name is a field the update path may write.
func IsMutableField(name string) bool {
	return slices.Contains(MutableFields, name)
}

// Diff compares a previously stored record against an incoming one and
// returns the minimal field map to bring prev up to date. Only mutable
// fields are compared; list fields use structural equality. An empty
// map means the records agree on every non-protected field and the
// write can be skipped entirely.
//
// Applying the returned map to prev field-by-field yields a record
// equal to incoming on all mutable fields and untouched on protected
// ones (see Apply).
func Diff(prev, incoming Issue) map[string]any {
	changed := make(map[string]any)

	if prev.Title != incoming.Title {
		changed[FieldTitle] = incoming.Title
	}
	if prev.State != incoming.State {
		changed[FieldState] = incoming.State
	}
	if !slices.Equal(prev.Labels, incoming.Labels) {
		changed[FieldLabels] = incoming.Labels
	}
	if !slices.Equal(prev.Assignees, incoming.Assignees) {
		changed[FieldAssignees] = incoming.Assignees
	}
	if !prev.UpdatedAt.Equal(incoming.UpdatedAt) {
		changed[FieldUpdatedAt] = incoming.UpdatedAt
	}

	return changed
}

// Apply returns a copy of prev with the diff fields overwritten.
// Unknown or protected field names are ignored.
func Apply(prev Issue, fields map[string]any) Issue {
	out := prev
	if v, ok := fields[FieldTitle].(string); ok {
		out.Title = v
	}
	if v, ok := fields[FieldState].(string); ok {
		out.State = v
	}
	if v, ok := fields[FieldLabels].([]Label); ok {
		out.Labels = v
	}
	if v, ok := fields[FieldAssignees].([]User); ok {
		out.Assignees = v
	}
	if v, ok := fields[FieldUpdatedAt].(time.Time); ok {
		out.UpdatedAt = v
	}
	return out
}
