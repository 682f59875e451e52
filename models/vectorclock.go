package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ClockOrdering is the result of comparing two vector clocks.
type ClockOrdering int

const (
	ClockEqual ClockOrdering = iota
	ClockBefore
	ClockAfter
	ClockConcurrent
)

// VectorClock maps an actor (terminal) ID to its monotonic counter.
// Counters for any given actor never decrease.
type VectorClock map[string]uint64

// NewVectorClock returns a clock seeded with the creating actor's first tick.
func NewVectorClock(actorID string) VectorClock {
	return VectorClock{actorID: 1}
}

// Increment bumps the counter for the given actor.
func (vc VectorClock) Increment(actorID string) {
	vc[actorID]++
}

// Clone returns an independent copy of the clock.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// Merge returns the pointwise maximum of both clocks.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	out := vc.Clone()
	for k, v := range other {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}

// Compare reports the causal relationship of vc to other.
func (vc VectorClock) Compare(other VectorClock) ClockOrdering {
	var less, greater bool
	for k, v := range vc {
		if o := other[k]; v > o {
			greater = true
		} else if v < o {
			less = true
		}
	}
	for k, o := range other {
		if v := vc[k]; o > v {
			less = true
		} else if o < v {
			greater = true
		}
	}
	switch {
	case less && greater:
		return ClockConcurrent
	case less:
		return ClockBefore
	case greater:
		return ClockAfter
	default:
		return ClockEqual
	}
}

// Value implements driver.Valuer so the clock is stored as jsonb.
func (vc VectorClock) Value() (driver.Value, error) {
	if vc == nil {
		vc = VectorClock{}
	}
	return json.Marshal(vc)
}

// Scan implements sql.Scanner.
func (vc *VectorClock) Scan(value interface{}) error {
	if value == nil {
		*vc = VectorClock{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("vector clock: unsupported column type")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, vc)
}
