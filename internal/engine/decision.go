package engine

import "github.com/tmkelly/issuebot/internal/model"

// ShouldReply decides whether the automated reply workflow fires for
// an event, from the label-set transition alone.
//
// previous is the label set of the stored record before this event; a
// nil set means no prior record existed (creation path). incoming is
// the label set carried by the event.
//
// Rule:
//   - creation path: reply iff the trigger label is present in incoming
//   - update path: reply iff the trigger label is present in incoming
//     AND absent from previous (strict absent-to-present transition)
//
// A label that was already present, or one that is removed, never
// triggers a reply. Consecutive events with the label present on both
// sides therefore do not retrigger; only the event that introduced the
// label does.
func ShouldReply(trigger string, previous, incoming model.LabelSet) bool {
	if !incoming.Has(trigger) {
		return false
	}
	if previous == nil {
		return true
	}
	return !previous.Has(trigger)
}
