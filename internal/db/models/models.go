// Package models defines the persisted entities shared by the API and the
// job processor.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Field names used when updating individual columns.
const (
	// JobStatusField is the database field name for the job status
	JobStatusField = "status"
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
)

// ListOptions holds pagination options for list queries
type ListOptions struct {
	Limit  int
	Offset int
}

// StringList is a []string stored as a JSON column.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("failed to unmarshal JSON value: %v", value)
		}
	}

	var temp []string
	if err := json.Unmarshal(bytes, &temp); err != nil {
		return fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	*l = temp
	return nil
}

// Contains reports whether the list holds the given value.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}
