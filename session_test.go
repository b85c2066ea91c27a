package insulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSession advances a deterministic session until it completes, returning
// the final session and every tick.
func runSession(t *testing.T, mode Mode, sc Scenario, voltage float64) (Session, []Tick) {
	t.Helper()
	m, err := ModelFor(mode)
	require.NoError(t, err)

	s := NewSession(mode, voltage, sc)
	var ticks []Tick
	for s.Running {
		var tick Tick
		s, tick = Advance(s, m, Perturbation{})
		ticks = append(ticks, tick)
		require.Less(t, len(ticks), 100000, "session never completed")
	}
	return s, ticks
}

// runUntil advances a deterministic session until elapsed reaches until.
func runUntil(t *testing.T, s Session, m Model, until float64) Session {
	t.Helper()
	for s.Running && s.Elapsed < until {
		s, _ = Advance(s, m, Perturbation{})
	}
	return s
}

func TestAdvanceDoesNotModifyInput(t *testing.T) {
	m, _ := ModelFor(ModeSpot)
	s := runUntil(t, NewSession(ModeSpot, 5000, ScenarioGood), m, 29)
	require.Len(t, s.Snapshots, 1)
	before := s
	before.Snapshots = append([]Snapshot(nil), s.Snapshots...)

	next, tick := Advance(s, m, Perturbation{})
	assert.Equal(t, 30.0, next.Elapsed)
	assert.Len(t, next.Snapshots, 2)
	assert.Equal(t, 29.0, s.Elapsed)
	assert.Len(t, s.Snapshots, 1)
	assert.Equal(t, before, s)
	require.Len(t, tick.Snapshots, 1)
	assert.Equal(t, "R30s", tick.Snapshots[0].ID)
}

func TestAdvanceElapsedMonotonicAndClamped(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			m, _ := ModelFor(mode)
			s, ticks := runSession(t, mode, m.Scenarios()[0], 5000)

			prev := 0.0
			for _, tick := range ticks {
				assert.GreaterOrEqual(t, tick.Reading.Elapsed, prev)
				assert.LessOrEqual(t, tick.Reading.Elapsed, m.Ceiling())
				prev = tick.Reading.Elapsed
			}
			assert.Equal(t, m.Ceiling(), s.Elapsed)
			assert.True(t, s.Completed)
			assert.False(t, s.Running)
			assert.True(t, ticks[len(ticks)-1].Completed)
		})
	}
}

func TestAdvanceStoppedSessionUnchanged(t *testing.T) {
	m, _ := ModelFor(ModeSpot)
	s := NewSession(ModeSpot, 5000, ScenarioGood)
	s.Running = false

	next, tick := Advance(s, m, Perturbation{Resistance: 0.3})
	assert.Equal(t, s, next)
	assert.Equal(t, Tick{}, tick)
}

func TestSnapshotsWriteOnce(t *testing.T) {
	m, _ := ModelFor(ModeSpot)
	s := runUntil(t, NewSession(ModeSpot, 5000, ScenarioGood), m, 100)
	captured, ok := s.Snapshot("R30s")
	require.True(t, ok)
	ar, ok := s.Indices.Get(IndexAbsorptionRatio)
	require.True(t, ok)

	// large perturbations after the checkpoint must not reach the snapshot
	for i := 0; i < 50; i++ {
		s, _ = Advance(s, m, Perturbation{Resistance: 0.4, Current: -0.4, Capacitance: 0.4})
	}
	again, ok := s.Snapshot("R30s")
	require.True(t, ok)
	assert.Equal(t, captured, again)
	assert.Equal(t, ar, s.Indices[IndexAbsorptionRatio])

	count := 0
	for _, snap := range s.Snapshots {
		if snap.ID == "R30s" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestIndicesUndefinedUntilSnapshotsExist(t *testing.T) {
	m, _ := ModelFor(ModeSpot)
	s := runUntil(t, NewSession(ModeSpot, 5000, ScenarioGood), m, 59)
	_, ok := s.Indices.Get(IndexAbsorptionRatio)
	assert.False(t, ok)
	assert.Equal(t, LabelInsufficientData, s.Classify(m).Label)

	s, tick := Advance(s, m, Perturbation{})
	assert.Equal(t, []string{IndexAbsorptionIndex, IndexAbsorptionRatio}, tick.Indices)
	_, ok = s.Indices.Get(IndexPolarization)
	assert.False(t, ok)
}

func TestIndexOrderFollowsCapture(t *testing.T) {
	s, _ := runSession(t, ModeSpot, ScenarioGood, 5000)
	assert.Equal(t, []string{
		IndexAbsorptionIndex, IndexAbsorptionRatio, IndexDielectricAbsorption, IndexPolarization,
	}, s.IndexOrder)
}
