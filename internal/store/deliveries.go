package store

import (
	"context"
	"fmt"
	"time"
)

// Delivery is one accepted webhook event in the append-only log.
type Delivery struct {
	Seq        int64     `json:"seq"`
	DeliveryID string    `json:"delivery_id"`
	Action     string    `json:"action"`
	IssueID    int64     `json:"issue_id"`
	ReceivedAt time.Time `json:"received_at"`
	Payload    string    `json:"payload"`
}

// AppendDelivery inserts a delivery record into the log.
// Uses ON CONFLICT(delivery_id) DO NOTHING for idempotency - the
// transport may redeliver the same event, and the second copy is
// silently ignored. Returns whether a new row was inserted.
func (s *Store) AppendDelivery(ctx context.Context, d Delivery) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries
		(seq, delivery_id, action, issue_id, received_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(delivery_id) DO NOTHING
	`,
		d.Seq,
		d.DeliveryID,
		d.Action,
		d.IssueID,
		marshalTime(d.ReceivedAt),
		d.Payload,
	)
	if err != nil {
		return false, fmt.Errorf("append delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append delivery: rows affected: %w", err)
	}
	return rows > 0, nil
}

// ReadDeliveries returns up to limit delivery records in seq order.
// A limit <= 0 returns the whole log. Returns an empty slice (not nil)
// when the log is empty.
func (s *Store) ReadDeliveries(ctx context.Context, limit int) ([]Delivery, error) {
	query := `
		SELECT seq, delivery_id, action, issue_id, received_at, payload
		FROM deliveries
		ORDER BY seq ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var (
			d          Delivery
			receivedAt string
		)
		if err := rows.Scan(&d.Seq, &d.DeliveryID, &d.Action, &d.IssueID, &receivedAt, &d.Payload); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if d.ReceivedAt, err = unmarshalTime(receivedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}

	return deliveries, nil
}

// MaxDeliverySeq returns the highest seq in the delivery log, or 0 for
// an empty log. Used to resume the logical clock on restart.
func (s *Store) MaxDeliverySeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM deliveries
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max delivery seq: %w", err)
	}
	return seq, nil
}
