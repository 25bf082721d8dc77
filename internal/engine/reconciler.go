package engine

import (
	"context"
	"log/slog"

	"github.com/tmkelly/issuebot/internal/model"
)

// ActionOpened is the creation action. Every other action value goes
// through the update path.
const ActionOpened = "opened"

// Table is the keyed-table collaborator the reconciler persists
// through. Implemented by *store.Store.
type Table interface {
	GetIssue(ctx context.Context, id int64) (model.Issue, bool, error)
	InsertIssue(ctx context.Context, issue model.Issue) error
	UpdateIssueFields(ctx context.Context, id int64, fields map[string]any) error
}

// Reconciler sequences lookup, diff, write and the reply decision for
// one event at a time per issue.
type Reconciler struct {
	table      Table
	replyLabel string
	locks      *issueLocks
	log        *slog.Logger
}

// NewReconciler creates a Reconciler persisting through table and
// triggering on replyLabel. A nil logger falls back to slog.Default.
func NewReconciler(table Table, replyLabel string, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		table:      table,
		replyLabel: replyLabel,
		locks:      newIssueLocks(),
		log:        log,
	}
}

// ReplyLabel returns the configured reply-trigger label name.
func (r *Reconciler) ReplyLabel() string {
	return r.replyLabel
}

// Reconcile persists the incoming record and returns the should-reply
// decision for this event.
//
// Creation ("opened"): the record is inserted; if a row with the same
// id already exists (redelivery, or a backfilled insert racing the
// live event) it is updated in place rather than rejected. Previous
// labels are treated as none either way - the event announces a new
// issue, so label presence alone decides.
//
// Update (every other action): the stored record is looked up; when
// found, the diff is applied only if non-empty, and previous labels
// come from the stored record. An unknown id is a late-arriving
// creation: insert, previous labels none.
//
// Any table I/O failure returns a PERSISTENCE EventError and the
// decision is not computed - persistence success is a precondition
// for reply-triggering.
func (r *Reconciler) Reconcile(ctx context.Context, issue model.Issue, action string) (bool, error) {
	unlock := r.locks.Lock(issue.ID)
	defer unlock()

	var previous model.LabelSet // nil until a stored record is found

	if action == ActionOpened {
		if err := r.upsert(ctx, issue); err != nil {
			return false, err
		}
	} else {
		stored, found, err := r.table.GetIssue(ctx, issue.ID)
		if err != nil {
			return false, NewPersistenceError(issue.ID, "lookup", err)
		}

		if found {
			previous = stored.LabelSet()
			if err := r.applyDiff(ctx, stored, issue); err != nil {
				return false, err
			}
		} else {
			// Late-arriving creation: first sight of this id.
			if err := r.table.InsertIssue(ctx, issue); err != nil {
				return false, NewPersistenceError(issue.ID, "insert", err)
			}
			r.log.Info("inserted issue not found for update",
				"issue", issue.Number, "repository", issue.Repository, "action", action)
		}
	}

	return ShouldReply(r.replyLabel, previous, issue.LabelSet()), nil
}

// upsert inserts the issue, falling back to a diff-and-patch update
// when a record with the same id already exists.
func (r *Reconciler) upsert(ctx context.Context, issue model.Issue) error {
	stored, found, err := r.table.GetIssue(ctx, issue.ID)
	if err != nil {
		return NewPersistenceError(issue.ID, "lookup", err)
	}

	if !found {
		if err := r.table.InsertIssue(ctx, issue); err != nil {
			return NewPersistenceError(issue.ID, "insert", err)
		}
		r.log.Info("inserted new issue",
			"issue", issue.Number, "repository", issue.Repository)
		return nil
	}

	// Duplicate "opened" for an existing id: update in place.
	r.log.Warn("opened event for existing issue, treating as update",
		"issue", issue.Number, "repository", issue.Repository)
	return r.applyDiff(ctx, stored, issue)
}

// applyDiff writes the changed fields, or nothing when the records
// already agree (idempotence under re-delivery).
func (r *Reconciler) applyDiff(ctx context.Context, stored, incoming model.Issue) error {
	changed := model.Diff(stored, incoming)
	if len(changed) == 0 {
		r.log.Debug("no changes detected, skipping write",
			"issue", incoming.Number, "repository", incoming.Repository)
		return nil
	}

	if err := r.table.UpdateIssueFields(ctx, incoming.ID, changed); err != nil {
		return NewPersistenceError(incoming.ID, "update", err)
	}

	fields := make([]string, 0, len(changed))
	for name := range changed {
		fields = append(fields, name)
	}
	r.log.Info("updated changed fields",
		"issue", incoming.Number, "repository", incoming.Repository, "fields", fields)
	return nil
}
