package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmkelly/issuebot/internal/model"
)

// GetIssue retrieves the stored record for an issue id.
// The second return value reports whether a record exists; a missing
// row is not an error.
func (s *Store) GetIssue(ctx context.Context, id int64) (model.Issue, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, repository, title, author, state, labels, assignees, created_at, updated_at
		FROM issues
		WHERE id = ?
	`, id)

	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Issue{}, false, nil
	}
	if err != nil {
		return model.Issue{}, false, fmt.Errorf("get issue %d: %w", id, err)
	}
	return issue, true, nil
}

// InsertIssue inserts a new issue record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a duplicate insert
// under a redelivered creation event is silently ignored. Other
// constraint violations still return errors.
func (s *Store) InsertIssue(ctx context.Context, issue model.Issue) error {
	labelsJSON, err := marshalLabels(issue.Labels)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	assigneesJSON, err := marshalAssignees(issue.Assignees)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO issues
		(id, number, repository, title, author, state, labels, assignees, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		issue.ID,
		issue.Number,
		issue.Repository,
		issue.Title,
		issue.Author,
		issue.State,
		labelsJSON,
		assigneesJSON,
		marshalTime(issue.CreatedAt),
		marshalTime(issue.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}

	return nil
}

// UpdateIssueFields applies a partial update keyed on issue id, as a
// single UPDATE statement. The field map uses the model.Field* names;
// only mutable fields are accepted - a protected or unknown field name
// is an error, not a silent skip.
//
// An empty field map is a no-op by contract; callers skip the write
// when the diff is empty, but the guard here keeps the operation safe
// under misuse.
func (s *Store) UpdateIssueFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic SET clause order keeps statements stable for logs.
	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for _, name := range model.MutableFields {
		value, ok := fields[name]
		if !ok {
			continue
		}

		stored, err := storageValue(name, value)
		if err != nil {
			return fmt.Errorf("update issue %d: %w", id, err)
		}
		setClauses = append(setClauses, name+" = ?")
		args = append(args, stored)
	}

	if len(setClauses) != len(fields) {
		for name := range fields {
			if !model.IsMutableField(name) {
				return fmt.Errorf("update issue %d: field %q is not updatable", id, name)
			}
		}
	}

	args = append(args, id)
	query := "UPDATE issues SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update issue %d: %w", id, err)
	}

	return nil
}

// storageValue converts a diff value to its SQLite representation.
func storageValue(field string, value any) (any, error) {
	switch field {
	case model.FieldLabels:
		labels, ok := value.([]model.Label)
		if !ok {
			return nil, fmt.Errorf("field %q: expected []model.Label, got %T", field, value)
		}
		return marshalLabels(labels)
	case model.FieldAssignees:
		users, ok := value.([]model.User)
		if !ok {
			return nil, fmt.Errorf("field %q: expected []model.User, got %T", field, value)
		}
		return marshalAssignees(users)
	case model.FieldUpdatedAt:
		t, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("field %q: expected time.Time, got %T", field, value)
		}
		return marshalTime(t), nil
	default:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: expected string, got %T", field, value)
		}
		return v, nil
	}
}

// scanIssue reads one issue row from a *sql.Row.
func scanIssue(row *sql.Row) (model.Issue, error) {
	var (
		issue         model.Issue
		labelsJSON    string
		assigneesJSON string
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(
		&issue.ID,
		&issue.Number,
		&issue.Repository,
		&issue.Title,
		&issue.Author,
		&issue.State,
		&labelsJSON,
		&assigneesJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Issue{}, err
	}

	if issue.Labels, err = unmarshalLabels(labelsJSON); err != nil {
		return model.Issue{}, err
	}
	if issue.Assignees, err = unmarshalAssignees(assigneesJSON); err != nil {
		return model.Issue{}, err
	}
	if issue.CreatedAt, err = unmarshalTime(createdAt); err != nil {
		return model.Issue{}, err
	}
	if issue.UpdatedAt, err = unmarshalTime(updatedAt); err != nil {
		return model.Issue{}, err
	}

	return issue, nil
}
