// Package store provides SQLite-backed durable storage for issue
// records and the webhook delivery log.
//
// Two tables:
//   - issues: one row per tracked issue, keyed on the tracker-assigned
//     global id. Rows are inserted on first sight and patched via
//     partial UPDATEs built from field diffs; they are never deleted
//     (a closed issue is a state value, not a removal).
//   - deliveries: append-only log of accepted webhook events, ordered
//     by a logical seq counter and deduplicated on delivery_id.
//
// Write discipline:
//   - InsertIssue and AppendDelivery use ON CONFLICT DO NOTHING so
//     redelivered events are idempotent.
//   - UpdateIssueFields applies a whole diff as one UPDATE statement,
//     so a failure never leaves a record partially patched.
//   - Only mutable columns are accepted by UpdateIssueFields; the
//     protected columns (id, number, repository, author, created_at)
//     cannot be reached through the update path.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - Single connection: serializes writers at the pool boundary
package store
