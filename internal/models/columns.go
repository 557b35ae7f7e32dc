package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// jsonColumnType picks jsonb on postgres and a plain JSON affinity elsewhere (sqlite)
func jsonColumnType(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "JSON"
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(value interface{}, dest interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// StringSet is a set of user ids (likes, dislikes, followers). It serialises as a
// sorted JSON array so stored documents and cache payloads are stable.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given members
func NewStringSet(members ...string) StringSet {
	s := make(StringSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was newly added
func (s *StringSet) Add(v string) bool {
	if *s == nil {
		*s = make(StringSet)
	}
	if _, ok := (*s)[v]; ok {
		return false
	}
	(*s)[v] = struct{}{}
	return true
}

// Remove deletes v and reports whether it was present
func (s *StringSet) Remove(v string) bool {
	if _, ok := (*s)[v]; !ok {
		return false
	}
	delete(*s, v)
	return true
}

// Has reports membership
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members
func (s StringSet) Len() int {
	return len(s)
}

// Slice returns the members in sorted order
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*s = NewStringSet(members...)
	return nil
}

func (s StringSet) Value() (driver.Value, error) {
	return jsonValue(s.Slice())
}

func (s *StringSet) Scan(value interface{}) error {
	var members []string
	if err := jsonScan(value, &members); err != nil {
		return err
	}
	*s = NewStringSet(members...)
	return nil
}

func (StringSet) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}

// StringList is an ordered list of strings stored as a JSON array
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(value interface{}) error {
	return jsonScan(value, (*[]string)(l))
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonColumnType(db)
}
