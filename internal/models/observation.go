package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is a raw message as it arrives on the input topic. Geometry is kept
// as its raw text so the coordinate pattern can run over it unchanged.
type Record struct {
	ID          string          `json:"id"`
	Geometry    json.RawMessage `json:"geometry"`
	TimestampMs *float64        `json:"timestamp_ms"`
}

// EnsureID assigns a random id to records that arrive without one.
func (r *Record) EnsureID() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
}

// GeometryText returns the geometry as text. A JSON string is unquoted,
// anything else is returned verbatim.
func (r *Record) GeometryText() string {
	var s string
	if err := json.Unmarshal(r.Geometry, &s); err == nil {
		return s
	}
	return string(r.Geometry)
}

// Observation is a decoded record.
type Observation struct {
	ID         string    `json:"id"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	ObservedAt time.Time `json:"observed_at"`
	Errors     []string  `json:"errors,omitempty"`
}

// Complete reports whether both the position and the time were decoded.
func (o Observation) Complete() bool { return len(o.Errors) == 0 }
