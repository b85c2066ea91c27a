package insulation

import (
	"fmt"
	"math"
	"strings"
)

// Condition labels
const (
	LabelExcellent        = "Excellent"
	LabelVeryGood         = "Very Good"
	LabelGood             = "Good"
	LabelFair             = "Fair"
	LabelQuestionable     = "Questionable"
	LabelPoor             = "Poor"
	LabelDangerous        = "Dangerous"
	LabelHomogeneous      = "Homogeneous"
	LabelBad              = "Bad"
	LabelInsufficientData = "Insufficient Data"
)

func insufficientData(required ...string) Classification {
	return Classification{
		Label:  LabelInsufficientData,
		Reason: fmt.Sprintf("requires %s", strings.Join(required, ", ")),
	}
}

// A threshold rule over two indices. Rules are evaluated in order; the first
// match wins.
type pairRule struct {
	label  string
	match  func(a, b float64) bool
	reason string // formatted with a, b
}

var polarizationRules = []pairRule{
	{LabelExcellent, func(pi, ar float64) bool { return pi > 4.0 && ar > 1.6 }, "PI %.2f > 4.0 and absorption ratio %.2f > 1.6"},
	{LabelVeryGood, func(pi, ar float64) bool { return pi > 3.0 && ar > 1.4 }, "PI %.2f > 3.0 and absorption ratio %.2f > 1.4"},
	{LabelGood, func(pi, ar float64) bool { return pi > 2.0 && ar > 1.25 }, "PI %.2f > 2.0 and absorption ratio %.2f > 1.25"},
	{LabelFair, func(pi, ar float64) bool { return pi > 1.5 && ar > 1.1 }, "PI %.2f > 1.5 and absorption ratio %.2f > 1.1"},
	{LabelDangerous, func(pi, ar float64) bool { return pi < 1.0 && ar < 1.0 }, "PI %.2f < 1.0 and absorption ratio %.2f < 1.0"},
	{LabelPoor, func(pi, _ float64) bool { return pi <= 1.0 }, "PI %.2f <= 1.0 (absorption ratio %.2f)"},
}

// ClassifyPolarization rates insulation from its polarization index and
// absorption ratio.
func ClassifyPolarization(pi, ar float64) Classification {
	if math.IsNaN(pi) || math.IsNaN(ar) {
		return insufficientData(IndexPolarization, IndexAbsorptionRatio)
	}
	for _, rule := range polarizationRules {
		if rule.match(pi, ar) {
			return Classification{Label: rule.label, Reason: fmt.Sprintf(rule.reason, pi, ar)}
		}
	}
	return Classification{
		Label:  LabelQuestionable,
		Reason: fmt.Sprintf("PI %.2f and absorption ratio %.2f disagree", pi, ar),
	}
}

// ClassifyDischarge rates the dielectric discharge index. A value near zero
// means a homogeneous dielectric; larger values indicate a defective layer.
func ClassifyDischarge(dd float64) Classification {
	abs := math.Abs(dd)
	switch {
	case math.IsNaN(dd):
		return insufficientData(IndexDischarge)
	case abs < 0.5:
		return Classification{Label: LabelHomogeneous, Reason: fmt.Sprintf("DD %.2f < 0.5", dd)}
	case dd < 2:
		return Classification{Label: LabelGood, Reason: fmt.Sprintf("DD %.2f < 2", dd)}
	case dd < 4:
		return Classification{Label: LabelQuestionable, Reason: fmt.Sprintf("2 <= DD %.2f < 4", dd)}
	case dd <= 7:
		return Classification{Label: LabelPoor, Reason: fmt.Sprintf("4 <= DD %.2f <= 7", dd)}
	default:
		return Classification{Label: LabelBad, Reason: fmt.Sprintf("DD %.2f > 7", dd)}
	}
}

// ClassifyInception rates a partial discharge ramp. free is the highest fraction
// of test voltage reached without discharge.
func ClassifyInception(free, inception float64, incepted bool) Classification {
	switch {
	case !incepted:
		return Classification{Label: LabelGood, Reason: fmt.Sprintf("no discharge up to %.0f %% of test voltage", free*100)}
	case inception >= 0.75:
		return Classification{Label: LabelQuestionable, Reason: fmt.Sprintf("inception at %.0f %% of test voltage, >= 75 %%", inception*100)}
	default:
		return Classification{Label: LabelPoor, Reason: fmt.Sprintf("inception at %.0f %% of test voltage, < 75 %%", inception*100)}
	}
}

// RateAbsorptionRatio applies the acceptance table for the absorption ratio.
func RateAbsorptionRatio(ar float64) string {
	switch {
	case ar >= 1.6:
		return LabelExcellent
	case ar >= 1.4:
		return LabelVeryGood
	case ar >= 1.25:
		return LabelGood
	case ar >= 1.0:
		return LabelQuestionable
	default:
		return LabelDangerous
	}
}

// RateAbsorptionIndex applies the acceptance table for the absorption index.
// The index is computed exactly like the absorption ratio (R60s/R30s) but is
// reported under its own name and table.
func RateAbsorptionIndex(ai float64) string {
	switch {
	case ai > 1.6:
		return LabelExcellent
	case ai > 1.25:
		return LabelGood
	case ai >= 1.0:
		return LabelFair
	default:
		return LabelPoor
	}
}

// RatePolarizationIndex applies the acceptance table for the polarization index alone.
func RatePolarizationIndex(pi float64) string {
	switch {
	case pi > 4.0:
		return LabelExcellent
	case pi > 2.0:
		return LabelGood
	case pi > 1.0:
		return LabelQuestionable
	default:
		return LabelDangerous
	}
}

// RateIndices rates each defined index that has an acceptance table of its own.
func RateIndices(ix Indices) map[string]string {
	tables := map[string]func(float64) string{
		IndexAbsorptionRatio: RateAbsorptionRatio,
		IndexAbsorptionIndex: RateAbsorptionIndex,
		IndexPolarization:    RatePolarizationIndex,
		IndexDischarge:       func(dd float64) string { return ClassifyDischarge(dd).Label },
	}
	out := map[string]string{}
	for name, rate := range tables {
		if v, ok := ix.Get(name); ok {
			out[name] = rate(v)
		}
	}
	return out
}
