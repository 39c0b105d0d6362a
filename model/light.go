package model

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// LightColor is a traffic-light aspect.
type LightColor int

const (
	Green LightColor = iota
	Yellow
	Red
)

func (c LightColor) String() string {
	switch c {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	}
	return "red"
}

// Next advances through the green -> yellow -> red -> green cycle.
func (c LightColor) Next() LightColor {
	switch c {
	case Green:
		return Yellow
	case Yellow:
		return Red
	}
	return Green
}

// LightMode selects between an incremental state machine and a stateless
// phase-computed light.
type LightMode int

const (
	ModeIndependent LightMode = iota
	ModeCoordinated
)

// Phase names a group of lights that change in lockstep at a junction.
type Phase string

const (
	PhaseA Phase = "A"
	PhaseB Phase = "B"
)

// Timing holds per-color durations in seconds.
type Timing struct {
	Green  float64 `json:"green"`
	Yellow float64 `json:"yellow"`
	Red    float64 `json:"red"`
}

// Cycle is the total cycle length.
func (t Timing) Cycle() float64 { return t.Green + t.Yellow + t.Red }

// Duration returns the dwell time of the given color.
func (t Timing) Duration(c LightColor) float64 {
	switch c {
	case Green:
		return t.Green
	case Yellow:
		return t.Yellow
	}
	return t.Red
}

// TrafficLight is a single installed light. Independent lights advance by
// elapsed time against the current color's duration; coordinated lights
// compute their color directly from the cycle position.
type TrafficLight struct {
	ID          int        `json:"id"`
	SegmentID   int        `json:"segment_id"`
	Node        orb.Point  `json:"node"` // attach point, world coordinates
	Color       LightColor `json:"color"`
	Timing      Timing     `json:"timing"`
	Mode        LightMode  `json:"mode"`
	Phase       Phase      `json:"phase,omitempty"`
	PhaseOffset float64    `json:"phase_offset,omitempty"` // seconds
	CycleTime   float64    `json:"cycle_time,omitempty"`   // seconds
	LastChange  time.Time  `json:"-"`
}

// PhaseColor computes a coordinated light's color as a stateless function
// of wall-clock time: position = (now - epoch) mod cycle - offset.
func (l *TrafficLight) PhaseColor(now, epoch time.Time) LightColor {
	cycle := l.CycleTime
	if cycle <= 0 {
		cycle = l.Timing.Cycle()
	}
	if cycle <= 0 {
		return l.Color
	}
	pos := math.Mod(now.Sub(epoch).Seconds()-l.PhaseOffset, cycle)
	if pos < 0 {
		pos += cycle
	}
	switch {
	case pos < l.Timing.Green:
		return Green
	case pos < l.Timing.Green+l.Timing.Yellow:
		return Yellow
	default:
		return Red
	}
}
