package insulation

import (
	"time"

	"github.com/google/uuid"
)

// MeasurementRecord is the finalised result of a run, created when the mode
// completes or the operator stops. Records are never modified once created.
type MeasurementRecord struct {
	ID             uuid.UUID         `json:"id"`
	Mode           Mode              `json:"mode"`
	Scenario       Scenario          `json:"scenario"`
	Voltage        float64           `json:"voltage"`
	Elapsed        float64           `json:"elapsed"`
	LastResistance float64           `json:"lastResistance"`
	LastCurrent    float64           `json:"lastCurrent"`
	Snapshots      []Snapshot        `json:"snapshots"`
	Indices        Indices           `json:"indices"`
	Ratings        map[string]string `json:"ratings,omitempty"`
	Classification Classification    `json:"classification"`
	Completed      bool              `json:"completed"`
	FinishedAt     time.Time         `json:"finishedAt"`
}

// NewRecord assembles a record from the session as it stands.
func NewRecord(s Session, m Model, finishedAt time.Time) MeasurementRecord {
	return MeasurementRecord{
		ID:             uuid.New(),
		Mode:           s.Mode,
		Scenario:       s.Scenario,
		Voltage:        s.TargetVoltage,
		Elapsed:        s.Elapsed,
		LastResistance: s.Last.Resistance,
		LastCurrent:    s.Last.Current,
		Snapshots:      append([]Snapshot(nil), s.Snapshots...),
		Indices:        s.Indices.clone(),
		Ratings:        RateIndices(s.Indices),
		Classification: s.Classify(m),
		Completed:      s.Completed,
		FinishedAt:     finishedAt,
	}
}

// Snapshot returns the snapshot captured for checkpoint id.
func (r MeasurementRecord) Snapshot(id string) (Snapshot, bool) {
	return findSnapshot(r.Snapshots, id)
}
