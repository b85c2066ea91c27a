package insulation

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Scenario is the hidden qualitative condition of the specimen under test. It is
// drawn once per run and fixes the shape of the model's trajectory.
type Scenario string

const (
	// spot / polarization
	ScenarioGood       Scenario = "good"
	ScenarioAcceptable Scenario = "acceptable"
	ScenarioMarginal   Scenario = "marginal"
	ScenarioDangerous  Scenario = "dangerous"

	// dielectric discharge
	ScenarioHomogeneous  Scenario = "homogeneous"
	ScenarioQuestionable Scenario = "questionable"
	ScenarioPoor         Scenario = "poor"
	ScenarioBad          Scenario = "bad"

	// step voltage
	ScenarioStable Scenario = "stable"

	// partial discharge ramp
	ScenarioClean  Scenario = "clean"
	ScenarioMinor  Scenario = "minor"
	ScenarioSevere Scenario = "severe"
)

// ParseScenario returns the scenario named s if it is valid for mode.
func ParseScenario(mode Mode, s string) (Scenario, error) {
	m, err := ModelFor(mode)
	if err != nil {
		return "", err
	}
	sc := Scenario(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(m.Scenarios(), sc) {
		return "", fmt.Errorf("%w: %q for %s", ErrUnknownScenario, s, mode)
	}
	return sc, nil
}

// drawScenario picks a scenario uniformly from those valid for m.
func drawScenario(m Model, r *rand.Rand) Scenario {
	scenarios := m.Scenarios()
	return scenarios[r.IntN(len(scenarios))]
}
