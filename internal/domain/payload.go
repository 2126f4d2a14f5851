package domain

import (
	"bytes"
	"database/sql/driver"
	"fmt"
)

// JSON opaque JSON document stored verbatim in a jsonb column
type JSON []byte

// MarshalJSON emits the stored bytes unchanged
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON keeps the raw bytes; null clears the value
func (j *JSON) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], b...)
	return nil
}

// Value implements driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner
func (j *JSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(JSON(nil), v...)
	case string:
		*j = JSON(v)
	default:
		return fmt.Errorf("domain.JSON: unsupported scan type %T", src)
	}
	return nil
}

// IsObject reports whether the document is a JSON object
func (j JSON) IsObject() bool {
	trimmed := bytes.TrimSpace(j)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
