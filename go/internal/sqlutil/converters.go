package sqlutil

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and their column forms

// ToNullRawMessage marshals v into a nullable jsonb value. A nil v maps to NULL.
func ToNullRawMessage(v any) (pqtype.NullRawMessage, error) {
	if v == nil {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal jsonb value: %w", err)
	}
	if string(raw) == "null" {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// FromNullRawMessage unmarshals a nullable jsonb value into dst. It reports
// false without touching dst when the value is NULL.
func FromNullRawMessage(val pqtype.NullRawMessage, dst any) (bool, error) {
	if !val.Valid || len(val.RawMessage) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(val.RawMessage, dst); err != nil {
		return false, fmt.Errorf("unmarshal jsonb value: %w", err)
	}
	return true, nil
}

// ToUUIDStrings converts ids to their text form for uuid[] parameters
func ToUUIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// FromUUIDStrings parses the text form of a uuid[] column
func FromUUIDStrings(vals []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(vals))
	for i, v := range vals {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q at position %d: %w", v, i, err)
		}
		out[i] = id
	}
	return out, nil
}
