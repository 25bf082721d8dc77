package model

import (
	"encoding/json"
	"time"
)

// Issue state values. GitHub only reports "open" and "closed"; a
// reopened issue arrives as state "open" with action "reopened".
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Issue is the canonical record persisted for every tracked issue.
//
// ID is the tracker-assigned global identifier. It is stable across the
// issue's lifetime and is the sole lookup key; (Repository, Number) is
// kept for display and search but never used for lookups.
type Issue struct {
	ID         int64     `json:"id"`
	Number     int       `json:"number"`
	Repository string    `json:"repository"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	State      string    `json:"state"`
	Labels     []Label   `json:"labels"`
	Assignees  []User    `json:"assignees"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Label is a single label descriptor attached to an issue.
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// User is a minimal user descriptor (assignee or author).
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id,omitempty"`
}

// LabelSet is the set-of-names view of an issue's labels, used by the
// reply decision. A nil LabelSet means "no prior record exists" and is
// distinct from an empty set (prior record with zero labels).
type LabelSet map[string]struct{}

// NewLabelSet builds a LabelSet from label descriptors.
// Always returns a non-nil set, even for zero labels.
func NewLabelSet(labels []Label) LabelSet {
	set := make(LabelSet, len(labels))
	for _, l := range labels {
		set[l.Name] = struct{}{}
	}
	return set
}

// Has reports whether the named label is in the set.
// Safe on a nil set (returns false).
func (s LabelSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// LabelSet returns the set-of-names view of the issue's labels.
func (i Issue) LabelSet() LabelSet {
	return NewLabelSet(i.Labels)
}

// DecodeLabels parses a label list from its serialized form. The
// payload may carry labels either as a nested JSON array or as a
// JSON-encoded string containing that array (some delivery paths
// double-encode list fields).
//
// A decode failure degrades to an empty list rather than an error:
// the event is still processed and the field is treated as "no labels
// present". Decode errors never propagate past the mapping boundary.
func DecodeLabels(raw json.RawMessage) []Label {
	if len(raw) == 0 {
		return []Label{}
	}

	var labels []Label
	if err := json.Unmarshal(raw, &labels); err == nil {
		return labels
	}

	// Double-encoded form: a JSON string holding the array.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &labels); err == nil {
			return labels
		}
	}

	return []Label{}
}

// DecodeAssignees parses an assignee list from its serialized form.
// Same fallback semantics as DecodeLabels.
func DecodeAssignees(raw json.RawMessage) []User {
	if len(raw) == 0 {
		return []User{}
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err == nil {
		return users
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &users); err == nil {
			return users
		}
	}

	return []User{}
}
