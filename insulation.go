// Package insulation emulates the time behaviour of insulation diagnostic test
// sets: spot and polarization resistance, dielectric discharge, step voltage and
// the voltage-ramp profile of a partial discharge analyzer.
//
// Units used throughout: resistance in MΩ, current in µA, capacitance in µF,
// voltage in V and time in seconds. V/MΩ gives µA and MΩ·µF gives seconds.
package insulation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Mode selects the test procedure.
type Mode string

const (
	ModeSpot      Mode = "spot"      // spot reading and polarization index
	ModeDischarge Mode = "discharge" // dielectric discharge
	ModeStep      Mode = "step"      // step voltage
	ModeRamp      Mode = "ramp"      // partial discharge analyzer voltage ramp
)

// MinResistance floors resistance before current is derived from it.
const MinResistance = 1e-3 // MΩ

var (
	ErrUnknownMode     = errors.New("unknown test mode")
	ErrUnknownScenario = errors.New("scenario not valid for test mode")
	ErrInvalidVoltage  = errors.New("target voltage must be greater than 0")
)

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := models[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Modes returns all supported modes in name order.
func Modes() []Mode {
	out := make([]Mode, 0, len(models))
	for m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reading is the instantaneous synthetic signal of an instrument.
type Reading struct {
	Elapsed            float64 `json:"elapsed"`                      // s
	Phase              string  `json:"phase,omitempty"`              // procedure phase, if the mode has several
	AppliedVoltage     float64 `json:"appliedVoltage"`               // V
	Resistance         float64 `json:"resistance"`                   // MΩ
	Current            float64 `json:"current"`                      // µA, negative while discharging
	Capacitance        float64 `json:"capacitance"`                  // µF
	TimeConstant       float64 `json:"timeConstant"`                 // s
	DischargeMagnitude float64 `json:"dischargeMagnitude,omitempty"` // pC
}

// Snapshot is a Reading captured once at a checkpoint.
type Snapshot struct {
	ID      string  `json:"id"`
	At      float64 `json:"at"`      // checkpoint time in seconds, or the crossing time for event checkpoints
	Voltage float64 `json:"voltage"` // voltage the snapshot is tagged with
	Reading Reading `json:"reading"`
}

// Indices holds diagnostic indices by name. An index that cannot be computed yet
// is absent rather than zero.
type Indices map[string]float64

// Get returns the named index and whether it is defined.
func (ix Indices) Get(name string) (float64, bool) {
	v, ok := ix[name]
	return v, ok
}

func (ix Indices) clone() Indices {
	out := make(Indices, len(ix))
	for k, v := range ix {
		out[k] = v
	}
	return out
}

// Classification is a condition label with the reasoning that produced it.
type Classification struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// Perturbation holds relative noise for one tick. The zero value yields the
// deterministic trajectory. Each field must lie in (-1, 1).
type Perturbation struct {
	Resistance  float64
	Current     float64
	Capacitance float64
}

// Model is the physics of one test procedure. Models are stateless: a reading
// depends only on elapsed time, scenario, voltage and perturbation.
type Model interface {
	Mode() Mode
	Scenarios() []Scenario
	TickPeriod() time.Duration        // wall clock period between ticks
	Ceiling() float64                 // elapsed time at which the procedure completes
	StepSize(elapsed float64) float64 // simulated seconds advanced by the next tick
	Evaluate(elapsed float64, sc Scenario, voltage float64, p Perturbation) Reading
	// Capture returns snapshots for checkpoints first crossed by cur. prev is
	// nil on the first tick. taken reports checkpoints already captured.
	Capture(prev *Reading, cur Reading, voltage float64, taken func(id string) bool) []Snapshot
	Indices(snapshots []Snapshot, voltage float64) Indices
	Classify(ix Indices, sc Scenario) Classification
}

var models = map[Mode]Model{
	ModeSpot:      spotModel{},
	ModeDischarge: dischargeModel{},
	ModeStep:      stepModel{},
	ModeRamp:      rampModel{},
}

// ModelFor returns the model implementing mode.
func ModelFor(mode Mode) (Model, error) {
	m, ok := models[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return m, nil
}

// checkpoint is a fixed elapsed time at which a snapshot is taken.
type checkpoint struct {
	ID string
	At float64
}

// captureAt snapshots cur for every checkpoint it has reached that is not yet
// taken. The >= comparison tolerates ticks overshooting the exact instant.
func captureAt(checkpoints []checkpoint, cur Reading, voltage float64, taken func(string) bool) []Snapshot {
	var out []Snapshot
	for _, cp := range checkpoints {
		if cur.Elapsed >= cp.At && !taken(cp.ID) {
			out = append(out, Snapshot{ID: cp.ID, At: cp.At, Voltage: voltage, Reading: cur})
		}
	}
	return out
}

func findSnapshot(snapshots []Snapshot, id string) (Snapshot, bool) {
	for _, s := range snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// ratio divides the resistances of two snapshots if both exist.
func ratio(snapshots []Snapshot, num, den string) (float64, bool) {
	n, ok := findSnapshot(snapshots, num)
	if !ok {
		return 0, false
	}
	d, ok := findSnapshot(snapshots, den)
	if !ok {
		return 0, false
	}
	return n.Reading.Resistance / math.Max(d.Reading.Resistance, MinResistance), true
}

// deriveCurrent returns V/R with R floored to MinResistance.
func deriveCurrent(voltage, resistance float64) (float64, float64) {
	r := math.Max(resistance, MinResistance)
	return voltage / r, r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
