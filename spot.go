package insulation

import (
	"math"
	"time"
)

const (
	spotR1          = 2000.0     // MΩ at one minute
	spotCapacitance = 0.5        // µF
	spotMinMinutes  = 1.0 / 60.0 // floor on elapsed minutes, avoids 0^k
	spotCeiling     = 600.0
	spotStep        = 1.0
)

// Index names
const (
	IndexAbsorptionRatio      = "AbsorptionRatio"      // R60s/R30s
	IndexAbsorptionIndex      = "AbsorptionIndex"      // R60s/R30s, reported separately
	IndexDielectricAbsorption = "DielectricAbsorption" // R180s/R30s
	IndexPolarization         = "PolarizationIndex"    // R600s/R60s
)

// Target polarization index per scenario; the curve exponent is log10 of it.
var spotTargets = map[Scenario]float64{
	ScenarioDangerous:  0.8,
	ScenarioMarginal:   1.3,
	ScenarioAcceptable: 2.5,
	ScenarioGood:       6.0,
}

var spotCheckpoints = []checkpoint{
	{ID: "R15s", At: 15},
	{ID: "R30s", At: 30},
	{ID: "R60s", At: 60},
	{ID: "R180s", At: 180},
	{ID: "R600s", At: 600},
}

// Resistance follows R1*t^k with t in minutes, so R(10min)/R(1min) = 10^k.
type spotModel struct{}

func (spotModel) Mode() Mode { return ModeSpot }

func (spotModel) Scenarios() []Scenario {
	return []Scenario{ScenarioDangerous, ScenarioMarginal, ScenarioAcceptable, ScenarioGood}
}

func (spotModel) TickPeriod() time.Duration { return 100 * time.Millisecond }

func (spotModel) Ceiling() float64 { return spotCeiling }

func (spotModel) StepSize(float64) float64 { return spotStep }

// SpotExponent returns the curve exponent k for sc.
func SpotExponent(sc Scenario) float64 {
	target, ok := spotTargets[sc]
	if !ok {
		return 0
	}
	return math.Log10(target)
}

func (spotModel) Evaluate(elapsed float64, sc Scenario, voltage float64, p Perturbation) Reading {
	minutes := math.Max(elapsed/60.0, spotMinMinutes)
	resistance := spotR1 * math.Pow(minutes, SpotExponent(sc))
	resistance *= 1 + p.Resistance

	current, resistance := deriveCurrent(voltage, resistance)
	capacitance := spotCapacitance * (1 + p.Capacitance)

	return Reading{
		Elapsed:        elapsed,
		AppliedVoltage: voltage,
		Resistance:     resistance,
		Current:        current,
		Capacitance:    capacitance,
		TimeConstant:   resistance * capacitance,
	}
}

func (spotModel) Capture(_ *Reading, cur Reading, voltage float64, taken func(string) bool) []Snapshot {
	return captureAt(spotCheckpoints, cur, voltage, taken)
}

func (spotModel) Indices(snapshots []Snapshot, _ float64) Indices {
	ix := Indices{}
	if v, ok := ratio(snapshots, "R60s", "R30s"); ok {
		ix[IndexAbsorptionRatio] = v
		ix[IndexAbsorptionIndex] = v
	}
	if v, ok := ratio(snapshots, "R180s", "R30s"); ok {
		ix[IndexDielectricAbsorption] = v
	}
	if v, ok := ratio(snapshots, "R600s", "R60s"); ok {
		ix[IndexPolarization] = v
	}
	return ix
}

func (spotModel) Classify(ix Indices, _ Scenario) Classification {
	pi, okPI := ix.Get(IndexPolarization)
	ar, okAR := ix.Get(IndexAbsorptionRatio)
	if !okPI || !okAR {
		return insufficientData(IndexPolarization, IndexAbsorptionRatio)
	}
	return ClassifyPolarization(pi, ar)
}
