package mysql

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// encodeJSON marshals a domain value for a JSON column. Nil values become
// SQL NULL so empty content stays distinguishable from "[]"/"{}".
func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json column: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// decodeJSON unmarshals a nullable JSON column into out, leaving out untouched
// on NULL.
func decodeJSON(raw sql.NullString, out any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), out); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
