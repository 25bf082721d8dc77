package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmkelly/issuebot/internal/model"
)

// Timestamps are stored as RFC 3339 UTC text, with nanosecond
// precision so a payload carrying fractional seconds round-trips
// exactly. Lossy storage would make the diff see a phantom
// updated_at change on every redelivery.
const timeFormat = time.RFC3339Nano

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalLabels converts label descriptors to JSON TEXT for storage.
// The empty list is stored as "[]", never NULL or "".
func marshalLabels(labels []model.Label) (string, error) {
	if len(labels) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}
	return string(data), nil
}

func unmarshalLabels(data string) ([]model.Label, error) {
	if data == "" || data == "[]" {
		return []model.Label{}, nil
	}
	var labels []model.Label
	if err := json.Unmarshal([]byte(data), &labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	return labels, nil
}

// marshalAssignees converts user descriptors to JSON TEXT for storage.
func marshalAssignees(users []model.User) (string, error) {
	if len(users) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(users)
	if err != nil {
		return "", fmt.Errorf("marshal assignees: %w", err)
	}
	return string(data), nil
}

func unmarshalAssignees(data string) ([]model.User, error) {
	if data == "" || data == "[]" {
		return []model.User{}, nil
	}
	var users []model.User
	if err := json.Unmarshal([]byte(data), &users); err != nil {
		return nil, fmt.Errorf("unmarshal assignees: %w", err)
	}
	return users, nil
}
