package insulation

import (
	"fmt"
	"math"
	"time"

	"github.com/synaptecltd/insulation/mathfuncs"
)

const (
	stepCount       = 5
	stepDuration    = 60.0   // s
	stepR1          = 4000.0 // MΩ, settled resistance of the first step
	stepSettleDepth = 0.3    // fraction below the settled value at the start of a step
	stepSettleTau   = 8.0    // s
	stepCapacitance = 0.5    // µF
	stepTransition  = 5.0    // s of fine stepping after each voltage change
)

const (
	IndexStepRatio      = "StepRatio"      // R(step 5)/R(step 1)
	IndexStepDeviation  = "StepDeviation"  // percentage change from step 1 to step 5
	IndexWorstStepRatio = "WorstStepRatio" // smallest R(step n+1)/R(step n)
)

// StepCurve returns the settled resistance of step i (0 based) relative to the
// first step.
type StepCurve func(i int) float64

// Curve families: rising, flat, declining by at most 20 % and collapsing.
var stepCurves = map[Scenario]StepCurve{
	ScenarioGood:         func(i int) float64 { return 1 + 0.06*float64(i) },
	ScenarioStable:       func(int) float64 { return 1 },
	ScenarioQuestionable: func(i int) float64 { return 1 - 0.05*float64(i) },
	ScenarioDangerous:    func(i int) float64 { return math.Pow(0.7, float64(i)) },
}

var stepLabels = map[Scenario]Classification{
	ScenarioGood:         {Label: LabelExcellent, Reason: "resistance rises with voltage"},
	ScenarioStable:       {Label: LabelGood, Reason: "resistance independent of voltage"},
	ScenarioQuestionable: {Label: LabelQuestionable, Reason: "resistance declines moderately with voltage"},
	ScenarioDangerous:    {Label: LabelDangerous, Reason: "resistance collapses at higher voltage"},
}

// The applied voltage rises in five equal steps; resistance settles within each
// step towards a value set by the scenario's curve family.
type stepModel struct{}

func (stepModel) Mode() Mode { return ModeStep }

func (stepModel) Scenarios() []Scenario {
	return []Scenario{ScenarioGood, ScenarioStable, ScenarioQuestionable, ScenarioDangerous}
}

func (stepModel) TickPeriod() time.Duration { return 100 * time.Millisecond }

func (stepModel) Ceiling() float64 { return stepCount * stepDuration }

func (stepModel) StepSize(elapsed float64) float64 {
	if math.Mod(elapsed, stepDuration) < stepTransition {
		return 0.25
	}
	return 1.0
}

// stepIndex returns the 0 based step active at elapsed.
func stepIndex(elapsed float64) int {
	i := int(math.Floor(elapsed / stepDuration))
	return min(max(i, 0), stepCount-1)
}

// StepVoltage returns the applied voltage of step i (0 based).
func StepVoltage(target float64, i int) float64 {
	return target * float64(i+1) / stepCount
}

func (m stepModel) Evaluate(elapsed float64, sc Scenario, voltage float64, p Perturbation) Reading {
	elapsed = clamp(elapsed, 0, m.Ceiling())
	i := stepIndex(elapsed)
	curve, ok := stepCurves[sc]
	if !ok {
		curve = stepCurves[ScenarioStable]
	}

	intoStep := elapsed - float64(i)*stepDuration
	settled := stepR1 * curve(i)
	resistance := settled - mathfuncs.ExponentialDecay(intoStep, settled*stepSettleDepth, stepSettleTau)
	resistance *= 1 + p.Resistance

	applied := StepVoltage(voltage, i)
	current, resistance := deriveCurrent(applied, resistance)
	capacitance := stepCapacitance * (1 + p.Capacitance)

	return Reading{
		Elapsed:        elapsed,
		Phase:          fmt.Sprintf("step-%d", i+1),
		AppliedVoltage: applied,
		Resistance:     resistance,
		Current:        current,
		Capacitance:    capacitance,
		TimeConstant:   resistance * capacitance,
	}
}

// Capture takes the reading from the tick before each step boundary, i.e. the
// settled end-of-step value, tagged with that step's voltage.
func (stepModel) Capture(prev *Reading, cur Reading, voltage float64, taken func(string) bool) []Snapshot {
	settled := cur
	if prev != nil {
		settled = *prev
	}

	var out []Snapshot
	for i := 0; i < stepCount; i++ {
		id := stepSnapshotID(i)
		at := float64(i+1) * stepDuration
		if cur.Elapsed >= at && !taken(id) {
			out = append(out, Snapshot{ID: id, At: at, Voltage: StepVoltage(voltage, i), Reading: settled})
		}
	}
	return out
}

func stepSnapshotID(i int) string {
	return fmt.Sprintf("step-%d", i+1)
}

func (stepModel) Indices(snapshots []Snapshot, _ float64) Indices {
	ix := Indices{}
	first := stepSnapshotID(0)
	last := stepSnapshotID(stepCount - 1)
	if v, ok := ratio(snapshots, last, first); ok {
		ix[IndexStepRatio] = v
		ix[IndexStepDeviation] = (v - 1) * 100
	}

	worst, complete := math.Inf(1), true
	for i := 1; i < stepCount; i++ {
		v, ok := ratio(snapshots, stepSnapshotID(i), stepSnapshotID(i-1))
		if !ok {
			complete = false
			break
		}
		worst = math.Min(worst, v)
	}
	if complete {
		ix[IndexWorstStepRatio] = worst
	}
	return ix
}

// The scenario already encodes the outcome its curve exhibits.
func (stepModel) Classify(ix Indices, sc Scenario) Classification {
	r, ok := ix.Get(IndexStepRatio)
	if !ok {
		return insufficientData(IndexStepRatio)
	}
	c, ok := stepLabels[sc]
	if !ok {
		return Classification{Label: LabelQuestionable, Reason: fmt.Sprintf("unrecognised scenario %q", sc)}
	}
	c.Reason = fmt.Sprintf("%s: R(step %d)/R(step 1) = %.3f", c.Reason, stepCount, r)
	return c
}
