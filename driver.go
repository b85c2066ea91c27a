package insulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/synaptecltd/insulation/series"
	"go.uber.org/zap"
)

// Chart names
const (
	ChartResistance = "resistance"
	ChartCurrent    = "current"
	ChartVoltage    = "voltage"
)

var chartNames = []string{ChartResistance, ChartCurrent, ChartVoltage}

// Chart is a reduced series ready for rendering.
type Chart struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Labels []string  `json:"labels"`
}

// Listener receives the outputs of a Driver. Callbacks are made outside the
// Driver's lock, in tick order, from the goroutine that ticked.
type Listener interface {
	OnReading(Reading)
	OnSnapshot(Snapshot)
	OnRecord(MeasurementRecord)
	OnChart(Chart)
}

// NopListener ignores all events. Embed it to handle a subset.
type NopListener struct{}

func (NopListener) OnReading(Reading)          {}
func (NopListener) OnSnapshot(Snapshot)        {}
func (NopListener) OnRecord(MeasurementRecord) {}
func (NopListener) OnChart(Chart)              {}

// Driver owns the test session of one instrument. Only one session runs at a
// time; ticks are applied one at a time and never interleave.
type Driver struct {
	mu       sync.Mutex
	cfg      Config
	logger   *zap.Logger
	listener Listener
	rng      *rand.Rand

	session    Session
	model      Model
	generation uint64             // incremented on every start, guards stale tick loops
	cancel     context.CancelFunc // stops the tick loop of the current session
	charts     map[string]*series.Buffer
	records    []MeasurementRecord
	now        func() time.Time
}

// NewDriver returns an idle Driver. A nil logger or listener is replaced by a
// no-op one. The Driver steps its own copy of the configured noise sources.
func NewDriver(cfg Config, logger *zap.Logger, listener Listener) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if listener == nil {
		listener = NopListener{}
	}
	if cfg.RawPoints < 1 {
		cfg.RawPoints = defaultRawPoints
	}
	if cfg.DisplayPoints < 1 {
		cfg.DisplayPoints = defaultDisplayPoints
	}
	cfg.Noise = cfg.Noise.Clone()
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	d := &Driver{
		cfg:      cfg,
		logger:   logger,
		listener: listener,
		rng:      rand.New(rand.NewPCG(seed, seed>>32)),
		charts:   map[string]*series.Buffer{},
		now:      time.Now,
	}
	for _, name := range chartNames {
		d.charts[name] = series.NewBuffer(cfg.RawPoints)
	}
	return d
}

// Start begins a run with a scenario drawn uniformly from those valid for mode.
// Starting while a run is in progress does nothing and is not an error, even
// with invalid arguments.
func (d *Driver) Start(mode Mode, voltage float64) error {
	return d.start(mode, voltage, nil)
}

// StartScenario begins a run with the given scenario.
func (d *Driver) StartScenario(mode Mode, voltage float64, sc Scenario) error {
	return d.start(mode, voltage, &sc)
}

func (d *Driver) start(mode Mode, voltage float64, sc *Scenario) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.Running {
		d.logger.Debug("start ignored, session running", zap.String("mode", string(d.session.Mode)))
		return nil
	}

	m, err := ModelFor(mode)
	if err != nil {
		return err
	}
	if voltage <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidVoltage, voltage)
	}
	if sc != nil {
		if _, err := ParseScenario(mode, string(*sc)); err != nil {
			return err
		}
	}

	scenario := drawScenario(m, d.rng)
	if sc != nil {
		scenario = *sc
	}

	d.stopScheduleLocked()
	d.generation++
	d.model = m
	d.session = NewSession(mode, voltage, scenario)
	for _, b := range d.charts {
		b.Reset()
	}
	d.cfg.Noise.ResetAll()

	d.logger.Info("session started",
		zap.String("mode", string(mode)),
		zap.Float64("voltage", voltage),
		zap.Uint64("generation", d.generation),
	)
	d.logger.Debug("scenario drawn", zap.String("scenario", string(scenario)))
	return nil
}

// Stop ends the running session and returns its record. It returns false when
// no session is running.
func (d *Driver) Stop() (MeasurementRecord, bool) {
	d.mu.Lock()
	if !d.session.Running {
		d.mu.Unlock()
		return MeasurementRecord{}, false
	}
	d.session.Running = false
	d.stopScheduleLocked()
	rec := d.finishLocked()
	d.mu.Unlock()

	d.listener.OnRecord(rec)
	return rec, true
}

// Tick advances the running session by one step and reports whether it is
// still running afterwards.
func (d *Driver) Tick() bool {
	d.mu.Lock()
	return d.tickLocked(d.generation)
}

// tickLocked must be called with d.mu held and releases it.
func (d *Driver) tickLocked(generation uint64) bool {
	if generation != d.generation || !d.session.Running {
		d.mu.Unlock()
		return false
	}

	dt := d.model.StepSize(d.session.Elapsed)
	next, tick := Advance(d.session, d.model, d.perturbation(dt))
	d.session = next

	label := strconv.FormatFloat(tick.Reading.Elapsed, 'f', -1, 64)
	d.charts[ChartResistance].Append(tick.Reading.Resistance, label)
	d.charts[ChartCurrent].Append(tick.Reading.Current, label)
	d.charts[ChartVoltage].Append(tick.Reading.AppliedVoltage, label)
	charts := d.chartsLocked()

	for _, s := range tick.Snapshots {
		d.logger.Debug("snapshot captured", zap.String("id", s.ID), zap.Float64("elapsed", tick.Reading.Elapsed))
	}
	for _, name := range tick.Indices {
		d.logger.Debug("index computed", zap.String("index", name), zap.Float64("value", next.Indices[name]))
	}

	var rec *MeasurementRecord
	if tick.Completed {
		d.stopScheduleLocked()
		r := d.finishLocked()
		rec = &r
	}
	running := d.session.Running
	d.mu.Unlock()

	d.listener.OnReading(tick.Reading)
	for _, s := range tick.Snapshots {
		d.listener.OnSnapshot(s)
	}
	for _, c := range charts {
		d.listener.OnChart(c)
	}
	if rec != nil {
		d.listener.OnRecord(*rec)
	}
	return running
}

// Run ticks the current session at its mode's fixed period until it ends, it
// is stopped, a new session is started or ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if !d.session.Running {
		d.mu.Unlock()
		return nil
	}
	d.stopScheduleLocked()
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	generation := d.generation
	period := d.model.TickPeriod()
	d.mu.Unlock()
	defer cancel()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.mu.Lock()
			if !d.tickLocked(generation) {
				return nil
			}
		}
	}
}

// Session returns a copy of the current session that shares no state with
// the Driver.
func (d *Driver) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.clone()
}

// Records returns the records created so far, oldest first.
func (d *Driver) Records() []MeasurementRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MeasurementRecord(nil), d.records...)
}

// Charts returns the reduced chart series of the current session.
func (d *Driver) Charts() []Chart {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chartsLocked()
}

func (d *Driver) chartsLocked() []Chart {
	out := make([]Chart, 0, len(chartNames))
	for _, name := range chartNames {
		values, labels := d.charts[name].Reduce(d.cfg.DisplayPoints)
		out = append(out, Chart{Name: name, Values: values, Labels: labels})
	}
	return out
}

// perturbation steps the noise sources once for the tick. Only the resistance
// draw advances noise time.
func (d *Driver) perturbation(dt float64) Perturbation {
	return Perturbation{
		Resistance:  d.cfg.Noise.StepAll(d.rng, dt),
		Current:     d.cfg.Noise.StepAll(d.rng, 0),
		Capacitance: d.cfg.Noise.StepAll(d.rng, 0),
	}
}

func (d *Driver) stopScheduleLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Driver) finishLocked() MeasurementRecord {
	rec := NewRecord(d.session, d.model, d.now())
	d.records = append(d.records, rec)

	d.logger.Info("session finished",
		zap.String("id", rec.ID.String()),
		zap.String("mode", string(rec.Mode)),
		zap.Bool("completed", rec.Completed),
		zap.Float64("elapsed", rec.Elapsed),
		zap.String("label", rec.Classification.Label),
	)
	return rec
}
