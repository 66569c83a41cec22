package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// Recipe is a dish template orders are built from
type Recipe struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Category      string        `json:"category" yaml:"category"`
	Stations      []StationType `json:"stations" yaml:"stations"`
	EstimatedTime time.Duration `json:"estimated_time" yaml:"estimated_time"`
	Tags          StringSlice   `json:"tags,omitempty" yaml:"tags"`
}

// Validate checks the recipe can produce a playable order
func (r *Recipe) Validate() error {
	if r.ID == "" || r.Name == "" {
		return fmt.Errorf("recipe requires an id and a name")
	}
	if len(r.Stations) == 0 {
		return fmt.Errorf("recipe %s has no stations", r.ID)
	}
	for i, st := range r.Stations {
		if !st.IsValid() || st == StationTicket {
			return fmt.Errorf("recipe %s step %d: invalid station %q", r.ID, i, st)
		}
		if st == StationServing && i != len(r.Stations)-1 {
			return fmt.Errorf("recipe %s: serving must be the last step", r.ID)
		}
	}
	if r.EstimatedTime <= 0 {
		return fmt.Errorf("recipe %s: estimated time must be positive", r.ID)
	}
	return nil
}

// NewOrder builds a pending order for this recipe
func (r *Recipe) NewOrder(id string) *Order {
	stations := make([]StationType, len(r.Stations))
	copy(stations, r.Stations)
	return NewOrder(id, r.ID, r.Name, stations, r.EstimatedTime)
}
