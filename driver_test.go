package insulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingListener struct {
	mu        sync.Mutex
	readings  []Reading
	snapshots []Snapshot
	records   []MeasurementRecord
	charts    map[string]Chart
}

func newRecordingListener() *recordingListener {
	return &recordingListener{charts: map[string]Chart{}}
}

func (l *recordingListener) OnReading(r Reading) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readings = append(l.readings, r)
}

func (l *recordingListener) OnSnapshot(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = append(l.snapshots, s)
}

func (l *recordingListener) OnRecord(r MeasurementRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

func (l *recordingListener) OnChart(c Chart) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.charts[c.Name] = c
}

func seededConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

// tickToEnd ticks d until its session stops.
func tickToEnd(t *testing.T, d *Driver) {
	t.Helper()
	for i := 0; d.Tick(); i++ {
		require.Less(t, i, 100000, "session never completed")
	}
}

func TestDriverSpotGoodIsExcellent(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	tickToEnd(t, d)

	records := d.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.True(t, rec.Completed)
	assert.Equal(t, 600.0, rec.Elapsed)
	assert.Greater(t, rec.Indices[IndexPolarization], 4.0)
	assert.Greater(t, rec.Indices[IndexAbsorptionRatio], 1.6)
	assert.Equal(t, LabelExcellent, rec.Classification.Label)
	assert.Equal(t, LabelExcellent, rec.Ratings[IndexPolarization])
}

func TestDriverStepDangerous(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeStep, 5000, ScenarioDangerous))
	tickToEnd(t, d)

	rec := d.Records()[0]
	first, ok := rec.Snapshot("step-1")
	require.True(t, ok)
	last, ok := rec.Snapshot("step-5")
	require.True(t, ok)
	assert.LessOrEqual(t, last.Reading.Resistance, 0.4*first.Reading.Resistance)
	assert.Equal(t, 1000.0, first.Voltage)
	assert.Equal(t, 5000.0, last.Voltage)
	assert.Equal(t, LabelDangerous, rec.Classification.Label)
}

func TestDriverNoisePreservesSign(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeDischarge, 5000, ScenarioBad))
	tickToEnd(t, d)

	rec := d.Records()[0]
	charge, _ := rec.Snapshot("charge-end")
	discharge, _ := rec.Snapshot("discharge-60s")
	assert.Greater(t, charge.Reading.Current, 0.0)
	assert.Less(t, discharge.Reading.Current, 0.0)
	assert.InDelta(t, 9.0, rec.Indices[IndexDischarge], 9.0*0.02)
}

func TestDriverSeedReproducible(t *testing.T) {
	run := func() MeasurementRecord {
		d := NewDriver(seededConfig(), nil, nil)
		require.NoError(t, d.Start(ModeSpot, 1000))
		tickToEnd(t, d)
		return d.Records()[0]
	}
	a, b := run(), run()
	assert.Equal(t, a.Scenario, b.Scenario)
	assert.Equal(t, a.Indices, b.Indices)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDriverStartValidation(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)

	err := d.Start(ModeSpot, 0)
	assert.True(t, errors.Is(err, ErrInvalidVoltage))

	err = d.Start(Mode("megger"), 1000)
	assert.True(t, errors.Is(err, ErrUnknownMode))

	err = d.StartScenario(ModeSpot, 1000, ScenarioClean)
	assert.True(t, errors.Is(err, ErrUnknownScenario))

	assert.False(t, d.Session().Running)
	assert.False(t, d.Tick())
}

func TestDriverStartWhileRunningIsIgnored(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	for i := 0; i < 10; i++ {
		d.Tick()
	}

	require.NoError(t, d.StartScenario(ModeStep, 1000, ScenarioStable))
	s := d.Session()
	assert.Equal(t, ModeSpot, s.Mode)
	assert.Equal(t, 5000.0, s.TargetVoltage)
	assert.Equal(t, 10.0, s.Elapsed)
}

func TestDriverStop(t *testing.T) {
	l := newRecordingListener()
	d := NewDriver(seededConfig(), nil, l)

	_, ok := d.Stop()
	assert.False(t, ok)

	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	for i := 0; i < 45; i++ {
		d.Tick()
	}

	rec, ok := d.Stop()
	require.True(t, ok)
	assert.False(t, rec.Completed)
	assert.Equal(t, 45.0, rec.Elapsed)
	assert.Len(t, rec.Snapshots, 2)
	assert.Empty(t, rec.Indices)
	assert.Equal(t, LabelInsufficientData, rec.Classification.Label)
	assert.Equal(t, d.Session().Last.Resistance, rec.LastResistance)
	assert.Equal(t, d.Session().Last.Current, rec.LastCurrent)

	_, ok = d.Stop()
	assert.False(t, ok)
	assert.False(t, d.Tick())
	require.Len(t, l.records, 1)
	assert.Equal(t, rec.ID, l.records[0].ID)
}

func TestDriverStartResetsState(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	for i := 0; i < 100; i++ {
		d.Tick()
	}
	d.Stop()

	require.NoError(t, d.StartScenario(ModeRamp, 3000, ScenarioMinor))
	s := d.Session()
	assert.True(t, s.Running)
	assert.Zero(t, s.Elapsed)
	assert.Empty(t, s.Snapshots)
	assert.Empty(t, s.Indices)
	for _, c := range d.Charts() {
		assert.Empty(t, c.Values, c.Name)
	}
	assert.Len(t, d.Records(), 1)
}

func TestDriverListenerEvents(t *testing.T) {
	l := newRecordingListener()
	cfg := seededConfig()
	cfg.DisplayPoints = 50
	d := NewDriver(cfg, nil, l)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioAcceptable))
	tickToEnd(t, d)

	assert.Len(t, l.readings, 600)
	assert.Len(t, l.snapshots, 5)
	require.Len(t, l.records, 1)
	assert.Equal(t, LabelGood, l.records[0].Classification.Label)

	for _, name := range chartNames {
		c, ok := l.charts[name]
		require.True(t, ok, name)
		assert.Len(t, c.Values, 50)
		assert.Len(t, c.Labels, 50)
	}
}

func TestDriverChartsTruncated(t *testing.T) {
	cfg := seededConfig()
	cfg.RawPoints = 100
	cfg.DisplayPoints = 500
	d := NewDriver(cfg, nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	tickToEnd(t, d)

	for _, c := range d.Charts() {
		assert.Len(t, c.Values, 100)
		assert.Equal(t, "501", c.Labels[0])
	}
}

func TestDriverRun(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	require.Eventually(t, func() bool { return d.Session().Ticks >= 2 }, 5*time.Second, 10*time.Millisecond)
	_, ok := d.Stop()
	require.True(t, ok)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestDriverRunContextCancelled(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeRamp, 5000, ScenarioClean))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.Session().Ticks >= 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, d.Session().Running)
}

func TestDriverStaleScheduleDoesNotTickNewSession(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	require.Eventually(t, func() bool { return d.Session().Ticks >= 1 }, 5*time.Second, 10*time.Millisecond)

	d.Stop()
	require.NoError(t, d.StartScenario(ModeStep, 1000, ScenarioStable))
	<-done

	time.Sleep(3 * stepModel{}.TickPeriod())
	assert.Zero(t, d.Session().Ticks)
}

func TestDriverLogsSessionLifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDriver(seededConfig(), zap.New(core), nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	tickToEnd(t, d)

	assert.Equal(t, 1, logs.FilterMessage("session started").Len())
	finished := logs.FilterMessage("session finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, LabelExcellent, finished[0].ContextMap()["label"])
}

func TestDriversFromOneConfigDoNotShareNoise(t *testing.T) {
	cfg := seededConfig()
	a := NewDriver(cfg, nil, nil)
	b := NewDriver(cfg, nil, nil)
	require.Len(t, cfg.Noise, 1)
	assert.NotSame(t, cfg.Noise[0], a.cfg.Noise[0])
	assert.NotSame(t, a.cfg.Noise[0], b.cfg.Noise[0])

	require.NoError(t, a.StartScenario(ModeSpot, 5000, ScenarioGood))
	require.NoError(t, b.StartScenario(ModeSpot, 5000, ScenarioGood))

	var wg sync.WaitGroup
	for _, d := range []*Driver{a, b} {
		wg.Add(1)
		go func(d *Driver) {
			defer wg.Done()
			for d.Tick() {
			}
		}(d)
	}
	wg.Wait()

	// same seed and independent noise state give identical runs
	assert.Equal(t, a.Records()[0].Indices, b.Records()[0].Indices)
	assert.Zero(t, cfg.Noise[0].(interface{ GetElapsedTime() float64 }).GetElapsedTime())
}

func TestDriverStartWhileRunningIgnoresInvalidArguments(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	d.Tick()

	assert.NoError(t, d.Start(ModeSpot, 0))
	assert.NoError(t, d.Start(Mode("megger"), 1000))
	assert.NoError(t, d.StartScenario(ModeSpot, 1000, ScenarioClean))

	s := d.Session()
	assert.Equal(t, ModeSpot, s.Mode)
	assert.Equal(t, 5000.0, s.TargetVoltage)
	assert.Equal(t, 1, s.Ticks)
}

func TestDriverSessionIsACopy(t *testing.T) {
	d := NewDriver(seededConfig(), nil, nil)
	require.NoError(t, d.StartScenario(ModeSpot, 5000, ScenarioGood))
	for i := 0; i < 60; i++ {
		d.Tick()
	}

	s := d.Session()
	require.Len(t, s.Snapshots, 3)
	ar := s.Indices[IndexAbsorptionRatio]
	r30 := s.Snapshots[1].Reading.Resistance

	s.Indices[IndexAbsorptionRatio] = 100
	s.Indices[IndexPolarization] = 100
	s.Snapshots[1].Reading.Resistance = -1
	s.IndexOrder[0] = "mutated"

	fresh := d.Session()
	assert.Equal(t, ar, fresh.Indices[IndexAbsorptionRatio])
	_, ok := fresh.Indices.Get(IndexPolarization)
	assert.False(t, ok)
	assert.Equal(t, r30, fresh.Snapshots[1].Reading.Resistance)
	assert.Equal(t, IndexAbsorptionIndex, fresh.IndexOrder[0])
}
