package insulation

import "slices"

// Session is the ground-truth state of one test run. It is a value: Advance
// returns a new Session and never modifies the one it was given.
type Session struct {
	Mode          Mode
	TargetVoltage float64
	Scenario      Scenario
	Elapsed       float64
	Running       bool
	Completed     bool // the mode's end condition was reached

	Last       Reading // most recent reading, valid when Ticks > 0
	Ticks      int
	Snapshots  []Snapshot // write-once, in capture order
	Indices    Indices    // computed once their snapshots exist, never revised
	IndexOrder []string   // order in which indices became defined
}

// NewSession returns a running session at zero elapsed time.
func NewSession(mode Mode, voltage float64, sc Scenario) Session {
	return Session{
		Mode:          mode,
		TargetVoltage: voltage,
		Scenario:      sc,
		Running:       true,
		Indices:       Indices{},
	}
}

// Snapshot returns the snapshot captured for checkpoint id.
func (s Session) Snapshot(id string) (Snapshot, bool) {
	return findSnapshot(s.Snapshots, id)
}

// HasSnapshot reports whether checkpoint id has been captured.
func (s Session) HasSnapshot(id string) bool {
	_, ok := s.Snapshot(id)
	return ok
}

// clone returns a deep copy of s.
func (s Session) clone() Session {
	out := s
	out.Snapshots = slices.Clone(s.Snapshots)
	out.Indices = s.Indices.clone()
	out.IndexOrder = slices.Clone(s.IndexOrder)
	return out
}

// Tick describes what one call to Advance produced.
type Tick struct {
	Reading   Reading
	Snapshots []Snapshot // newly captured
	Indices   []string   // newly defined
	Completed bool       // this tick reached the ceiling
}

// Advance performs one tick: it moves elapsed time on by the model's step,
// evaluates a reading, captures any checkpoints first crossed, derives any
// indices whose snapshots now exist and completes the session at the ceiling.
// A session that is not running is returned unchanged.
func Advance(s Session, m Model, p Perturbation) (Session, Tick) {
	if !s.Running {
		return s, Tick{}
	}

	next := s
	ceiling := m.Ceiling()
	next.Elapsed = clamp(s.Elapsed+m.StepSize(s.Elapsed), 0, ceiling)

	reading := m.Evaluate(next.Elapsed, s.Scenario, s.TargetVoltage, p)
	reading.Elapsed = next.Elapsed

	var prev *Reading
	if s.Ticks > 0 {
		last := s.Last
		prev = &last
	}

	tick := Tick{Reading: reading}
	captured := m.Capture(prev, reading, s.TargetVoltage, s.HasSnapshot)
	if len(captured) > 0 {
		next.Snapshots = append(slices.Clip(s.Snapshots), captured...)
		tick.Snapshots = captured

		next.Indices = s.Indices.clone()
		for name, v := range m.Indices(next.Snapshots, s.TargetVoltage) {
			if _, ok := next.Indices[name]; ok {
				continue
			}
			next.Indices[name] = v
			tick.Indices = append(tick.Indices, name)
		}
		slices.Sort(tick.Indices)
		next.IndexOrder = append(slices.Clip(s.IndexOrder), tick.Indices...)
	}

	next.Last = reading
	next.Ticks = s.Ticks + 1

	if next.Elapsed >= ceiling {
		next.Running = false
		next.Completed = true
		tick.Completed = true
	}
	return next, tick
}

// Classify rates the session's indices with the model's classifier.
func (s Session) Classify(m Model) Classification {
	return m.Classify(s.Indices, s.Scenario)
}
