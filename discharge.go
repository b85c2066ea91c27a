package insulation

import (
	"math"
	"time"

	"github.com/synaptecltd/insulation/mathfuncs"
)

const (
	ddChargeDuration    = 600.0 // s
	ddDischargeDuration = 120.0 // s
	ddIndexDelay        = 60.0  // s after de-energisation
	ddTransition        = 5.0   // s of fine stepping after the boundary

	ddR0             = 50.0 // MΩ, initial insulation resistance
	ddGrowth         = 0.8  // logarithmic growth factor of resistance while charging
	ddGrowthTau      = 20.0 // s
	ddChargeTau      = 30.0 // s, decay of the charging current
	ddSteadyFraction = 0.02 // steady leakage as a fraction of the charging peak
	ddReversal       = 0.5  // discharge peak as a multiple of the charging peak
	ddRiseTau        = 0.5  // s, rise to the discharge peak
	ddCapacitance    = 0.5  // µF
)

const IndexDischarge = "DischargeIndex"

// Target discharge index per scenario.
var dischargeTargets = map[Scenario]float64{
	ScenarioHomogeneous:  0.2,
	ScenarioGood:         1.2,
	ScenarioQuestionable: 3.0,
	ScenarioPoor:         5.5,
	ScenarioBad:          9.0,
}

var dischargeCheckpoints = []checkpoint{
	{ID: "charge-60s", At: 60},
	{ID: "charge-end", At: ddChargeDuration},
	{ID: "discharge-60s", At: ddChargeDuration + ddIndexDelay},
	{ID: "discharge-end", At: ddChargeDuration + ddDischargeDuration},
}

// The specimen is charged at the test voltage, then shorted through the
// instrument, which measures the reversed absorption current.
type dischargeModel struct{}

func (dischargeModel) Mode() Mode { return ModeDischarge }

func (dischargeModel) Scenarios() []Scenario {
	return []Scenario{ScenarioHomogeneous, ScenarioGood, ScenarioQuestionable, ScenarioPoor, ScenarioBad}
}

func (dischargeModel) TickPeriod() time.Duration { return 50 * time.Millisecond }

func (dischargeModel) Ceiling() float64 { return ddChargeDuration + ddDischargeDuration }

func (dischargeModel) StepSize(elapsed float64) float64 {
	switch {
	case elapsed < ddChargeDuration:
		return 2.0
	case elapsed < ddChargeDuration+ddTransition:
		return 0.25
	default:
		return 1.0
	}
}

// DischargeIndex returns current / (voltage * capacitance) with the current in
// mA and the capacitance in F, from a current in µA and a capacitance in µF.
// The magnitude of the current is used.
func DischargeIndex(currentMicroAmps, voltage, capacitanceMicroFarads float64) float64 {
	currentMilliAmps := math.Abs(currentMicroAmps) / 1000.0
	capacitanceFarads := capacitanceMicroFarads * 1e-6
	return currentMilliAmps / (voltage * capacitanceFarads)
}

// dischargeTau returns the decay time constant placing the discharge current at
// ddIndexDelay on the scenario's target index.
func dischargeTau(sc Scenario) float64 {
	target, ok := dischargeTargets[sc]
	if !ok {
		target = dischargeTargets[ScenarioGood]
	}
	// I60 = target*V*C*1e-3 µA and the peak is ddReversal*V/ddR0, so V cancels.
	wanted := target * ddCapacitance * 1e-3 * ddR0 / ddReversal
	rise := mathfuncs.ExponentialSaturation(ddIndexDelay, 1, ddRiseTau)
	fraction := clamp(wanted/rise, 1e-6, 0.99)
	return -ddIndexDelay / math.Log(fraction)
}

func chargeResistance(t float64) float64 {
	return ddR0 + mathfuncs.LogGrowth(t, ddR0*ddGrowth, ddGrowthTau)
}

func (m dischargeModel) Evaluate(elapsed float64, sc Scenario, voltage float64, p Perturbation) Reading {
	elapsed = clamp(elapsed, 0, m.Ceiling())
	peak := voltage / ddR0
	capacitance := ddCapacitance * (1 + p.Capacitance)

	var resistance, current, applied float64
	phase := "charge"
	if elapsed <= ddChargeDuration {
		applied = voltage
		resistance = chargeResistance(elapsed)
		steady := ddSteadyFraction * peak
		current = steady + mathfuncs.ExponentialDecay(elapsed, peak-steady, ddChargeTau)
	} else {
		phase = "discharge"
		td := elapsed - ddChargeDuration
		resistance = chargeResistance(ddChargeDuration)
		rise := mathfuncs.ExponentialSaturation(td, ddReversal*peak, ddRiseTau)
		current = -mathfuncs.ExponentialDecay(td, rise, dischargeTau(sc))
	}
	resistance = math.Max(resistance*(1+p.Resistance), MinResistance)
	current *= 1 + p.Current

	return Reading{
		Elapsed:        elapsed,
		Phase:          phase,
		AppliedVoltage: applied,
		Resistance:     resistance,
		Current:        current,
		Capacitance:    capacitance,
		TimeConstant:   resistance * capacitance,
	}
}

// Snapshots are tagged with the test voltage rather than the applied voltage,
// which is zero once discharging.
func (dischargeModel) Capture(_ *Reading, cur Reading, voltage float64, taken func(string) bool) []Snapshot {
	return captureAt(dischargeCheckpoints, cur, voltage, taken)
}

func (dischargeModel) Indices(snapshots []Snapshot, voltage float64) Indices {
	ix := Indices{}
	if s, ok := findSnapshot(snapshots, "discharge-60s"); ok {
		ix[IndexDischarge] = DischargeIndex(s.Reading.Current, s.Voltage, s.Reading.Capacitance)
	}
	return ix
}

func (dischargeModel) Classify(ix Indices, _ Scenario) Classification {
	dd, ok := ix.Get(IndexDischarge)
	if !ok {
		return insufficientData(IndexDischarge)
	}
	return ClassifyDischarge(dd)
}
