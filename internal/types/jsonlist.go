package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a JSON-encoded list column (tools_used, files_touched)
// that hides its encoding behind database/sql's Scanner/Valuer so callers
// work with a plain []string.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshaling string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshaling string list: %w", err)
	}
	*l = out
	return nil
}

// Append adds v to the list unless already present, preserving order.
func (l StringList) Append(v string) StringList {
	for _, existing := range l {
		if existing == v {
			return l
		}
	}
	return append(l, v)
}

// Metadata is an opaque JSON object bag attached to sessions and checkpoints.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Metadata", src)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshaling metadata: %w", err)
	}
	*m = out
	return nil
}

// Bool returns the boolean value of key, defaulting to false.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// DecodeMetadata parses a raw JSON object column value, used where a
// query scans the column directly into a string rather than through
// Metadata.Scan (e.g. a SELECT that also needs the raw value for a
// subsequent json_set).
func DecodeMetadata(raw string) (Metadata, error) {
	m := Metadata{}
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return m, nil
}

// DecodeStringList parses a raw JSON array column value; see DecodeMetadata.
func DecodeStringList(raw string) (StringList, error) {
	var l StringList
	if raw == "" {
		return StringList{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("unmarshaling string list: %w", err)
	}
	return l, nil
}
