package insulation

import (
	"math"
	"time"

	"github.com/synaptecltd/insulation/mathfuncs"
)

const (
	rampUpDuration   = 60.0  // s
	rampHoldDuration = 120.0 // s
	rampDownDuration = 60.0  // s
	rampRestDuration = 30.0  // s

	rampResistance  = 10000.0 // MΩ
	rampGrowth      = 0.1     // logarithmic growth of resistance over the run
	rampCapacitance = 0.5     // µF
	rampExtinction  = 0.8     // extinction voltage as a fraction of inception voltage
)

const (
	IndexInceptionRatio     = "InceptionRatio"     // inception voltage / test voltage
	IndexExtinctionRatio    = "ExtinctionRatio"    // extinction voltage / test voltage
	IndexDischargeFreeRatio = "DischargeFreeRatio" // highest voltage fraction reached without discharge
)

// Inception voltage as a fraction of test voltage, and discharge magnitude scale in pC.
var rampScenarios = map[Scenario]struct{ inception, charge float64 }{
	ScenarioClean:  {inception: 1.2},
	ScenarioMinor:  {inception: 0.8, charge: 50},
	ScenarioSevere: {inception: 0.5, charge: 500},
}

const (
	rampUpEnd   = rampUpDuration
	rampHoldEnd = rampUpEnd + rampHoldDuration
	rampDownEnd = rampHoldEnd + rampDownDuration
	rampRestEnd = rampDownEnd + rampRestDuration
)

var rampCheckpoints = []checkpoint{
	{ID: "ramp-up-end", At: rampUpEnd},
	{ID: "hold-end", At: rampHoldEnd},
	{ID: "ramp-down-end", At: rampDownEnd},
	{ID: "rest-end", At: rampRestEnd},
}

// Four-phase profile of a partial discharge analyzer: ramp up, hold, ramp down
// and rest at zero.
type rampModel struct{}

func (rampModel) Mode() Mode { return ModeRamp }

func (rampModel) Scenarios() []Scenario {
	return []Scenario{ScenarioClean, ScenarioMinor, ScenarioSevere}
}

func (rampModel) TickPeriod() time.Duration { return 50 * time.Millisecond }

func (rampModel) Ceiling() float64 { return rampRestEnd }

// Ramps are the transitions and are stepped finely.
func (rampModel) StepSize(elapsed float64) float64 {
	switch rampPhase(elapsed) {
	case "ramp-up", "ramp-down":
		return 0.5
	default:
		return 2.0
	}
}

func rampPhase(elapsed float64) string {
	switch {
	case elapsed < rampUpEnd:
		return "ramp-up"
	case elapsed < rampHoldEnd:
		return "hold"
	case elapsed < rampDownEnd:
		return "ramp-down"
	default:
		return "rest"
	}
}

// rampProfile returns the applied voltage and its rate of change in V/s.
func rampProfile(elapsed, voltage float64) (float64, float64) {
	switch rampPhase(elapsed) {
	case "ramp-up":
		return mathfuncs.LinearRamp(elapsed, voltage, rampUpDuration), voltage / rampUpDuration
	case "hold":
		return voltage, 0
	case "ramp-down":
		return voltage - mathfuncs.LinearRamp(elapsed-rampHoldEnd, voltage, rampDownDuration), -voltage / rampDownDuration
	default:
		return 0, 0
	}
}

// dischargeActive reports whether partial discharge is present. Once incepted on
// the way up it persists on the way down until the extinction voltage.
func dischargeActive(phase string, applied, voltage, inception float64) bool {
	vi := inception * voltage
	switch phase {
	case "ramp-up", "hold":
		return applied >= vi
	case "ramp-down":
		return vi <= voltage && applied >= rampExtinction*vi
	default:
		return false
	}
}

func (m rampModel) Evaluate(elapsed float64, sc Scenario, voltage float64, p Perturbation) Reading {
	elapsed = clamp(elapsed, 0, m.Ceiling())
	params, ok := rampScenarios[sc]
	if !ok {
		params = rampScenarios[ScenarioClean]
	}

	phase := rampPhase(elapsed)
	applied, slope := rampProfile(elapsed, voltage)

	resistance := rampResistance + mathfuncs.LogGrowth(elapsed, rampResistance*rampGrowth, rampUpDuration)
	resistance = math.Max(resistance*(1+p.Resistance), MinResistance)
	capacitance := rampCapacitance * (1 + p.Capacitance)

	// leakage plus capacitive charging current, µF * V/s = µA
	leakage, resistance := deriveCurrent(applied, resistance)
	current := (leakage + capacitance*slope) * (1 + p.Current)

	var magnitude float64
	if dischargeActive(phase, applied, voltage, params.inception) {
		magnitude = params.charge * applied / (params.inception * voltage) * (1 + p.Current)
	}

	return Reading{
		Elapsed:            elapsed,
		Phase:              phase,
		AppliedVoltage:     applied,
		Resistance:         resistance,
		Current:            current,
		Capacitance:        capacitance,
		TimeConstant:       resistance * capacitance,
		DischargeMagnitude: magnitude,
	}
}

// Capture adds event checkpoints to the phase boundaries: "inception" when
// discharge first appears and "extinction" when it first disappears. Both are
// tagged with the applied voltage at the crossing.
func (rampModel) Capture(prev *Reading, cur Reading, voltage float64, taken func(string) bool) []Snapshot {
	out := captureAt(rampCheckpoints, cur, voltage, taken)

	wasActive := prev != nil && prev.DischargeMagnitude > 0
	isActive := cur.DischargeMagnitude > 0
	if isActive && !wasActive && !taken("inception") {
		out = append(out, Snapshot{ID: "inception", At: cur.Elapsed, Voltage: cur.AppliedVoltage, Reading: cur})
	}
	if wasActive && !isActive && taken("inception") && !taken("extinction") {
		out = append(out, Snapshot{ID: "extinction", At: cur.Elapsed, Voltage: cur.AppliedVoltage, Reading: cur})
	}
	return out
}

func (rampModel) Indices(snapshots []Snapshot, voltage float64) Indices {
	ix := Indices{}
	if s, ok := findSnapshot(snapshots, "inception"); ok {
		ix[IndexInceptionRatio] = s.Voltage / voltage
		ix[IndexDischargeFreeRatio] = s.Voltage / voltage
	} else if _, ok := findSnapshot(snapshots, "ramp-up-end"); ok {
		ix[IndexDischargeFreeRatio] = 1.0
	}
	if s, ok := findSnapshot(snapshots, "extinction"); ok {
		ix[IndexExtinctionRatio] = s.Voltage / voltage
	}
	return ix
}

func (rampModel) Classify(ix Indices, _ Scenario) Classification {
	free, ok := ix.Get(IndexDischargeFreeRatio)
	if !ok {
		return insufficientData(IndexDischargeFreeRatio)
	}
	inception, incepted := ix.Get(IndexInceptionRatio)
	return ClassifyInception(free, inception, incepted)
}
