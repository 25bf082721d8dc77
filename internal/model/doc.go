// Package model defines the canonical Issue record and the field-level
// diff used to minimize write amplification.
//
// An Issue is the normalized, typed representation of an issue-tracker
// entity. It is reconstructed wholesale from every inbound webhook event
// and compared against the previously stored record; only fields that
// actually changed are written back.
//
// # Protected Fields
//
// A fixed subset of fields (identifiers, repository, author, creation
// time) is immutable once persisted. The diff never emits them, no
// matter what the incoming payload carries. See ProtectedFields.
//
// # Labels and Assignees
//
// Labels and assignees are stored as ordered sequences for fidelity, but
// the reply decision treats labels as a set of names (see LabelSet).
// List fields are replaced wholesale on change - there is no partial
// merge of list internals.
package model
