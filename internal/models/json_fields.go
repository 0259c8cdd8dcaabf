package models

import (
	"database/sql/driver"

	"github.com/segmentio/encoding/json"
)

// Dish is a signature dish recommended for an item.
type Dish struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

// Dishes, SubScores and Tags are JSON-encoded columns. A column that fails to
// decode scans as an empty container instead of an error.
type Dishes []Dish

type SubScores map[string]float64

type Tags []string

func (d Dishes) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return encodeColumn(d)
}

func (d *Dishes) Scan(src any) error {
	var v Dishes
	if !decodeColumn(src, &v) || v == nil {
		v = Dishes{}
	}
	*d = v
	return nil
}

func (Dishes) GormDataType() string { return "text" }

func (s SubScores) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return encodeColumn(s)
}

func (s *SubScores) Scan(src any) error {
	var v SubScores
	if !decodeColumn(src, &v) || v == nil {
		v = SubScores{}
	}
	*s = v
	return nil
}

func (SubScores) GormDataType() string { return "text" }

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return encodeColumn(t)
}

func (t *Tags) Scan(src any) error {
	var v Tags
	if !decodeColumn(src, &v) || v == nil {
		v = Tags{}
	}
	*t = v
	return nil
}

func (Tags) GormDataType() string { return "text" }

func encodeColumn(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeColumn reports whether src held valid JSON for dst.
func decodeColumn(src any, dst any) bool {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return false
	}
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
