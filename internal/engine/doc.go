// Package engine implements the event-to-state reconciliation core.
//
// For every inbound issue event the Reconciler runs one unit of work:
//
//  1. Look up the stored record for the issue id.
//  2. Diff the incoming record against it (model.Diff) and apply a
//     partial update only when something actually changed.
//  3. Derive the should-reply decision from the label-set transition
//     (ShouldReply): the reply-trigger label present at creation, or
//     moving strictly from absent to present on an update.
//
// Persistence success is a precondition for the reply decision - a
// table I/O failure surfaces as a PERSISTENCE EventError and the
// caller must not trigger downstream notification.
//
// Events for different issues may be processed concurrently; events
// for the same issue id are serialized by a per-key lock held across
// the lookup-diff-write sequence, so out-of-order interleavings cannot
// turn a label removal into a false absent-to-present transition.
package engine
