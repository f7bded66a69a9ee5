package gauge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellgauge/cell-gauge/classify"
)

type fakeMeter struct {
	volts []float32
	next  int
	err   error
}

func (m *fakeMeter) ReadVolts() (float32, error) {
	if m.err != nil {
		return 0, m.err
	}
	v := m.volts[m.next]
	if m.next < len(m.volts)-1 {
		m.next++
	}
	return v, nil
}

type recorder struct {
	samples []Sample
}

func (r *recorder) Render(s Sample) error {
	r.samples = append(r.samples, s)
	return nil
}

type failingRenderer struct{ calls int }

func (f *failingRenderer) Render(Sample) error {
	f.calls++
	return errors.New("render broke")
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestCycleClassifiesMeasurement(t *testing.T) {
	// 500 counts at 1.085V reference through the 10k:10k divider lands
	// in the LOW band.
	volts := float32(500.0 * 1.085 / 1023.0 * 2.0)
	rec := &recorder{}
	g, err := New(&fakeMeter{volts: []float32{volts}}, classify.DefaultThresholds(), testLogger(), rec)
	require.NoError(t, err)

	s, err := g.Cycle()
	require.NoError(t, err)
	assert.True(t, s.Present)
	assert.Equal(t, classify.Low, s.Tier)
	assert.InDelta(t, 1.0606, s.Volts, 0.0005)

	require.Len(t, rec.samples, 1)
	assert.Equal(t, s.Tier, rec.samples[0].Tier)
}

func TestCyclePresenceCarriesAcrossCycles(t *testing.T) {
	g, err := New(&fakeMeter{volts: []float32{0, 0.03, 0.07, 0.03, 0.01}}, classify.DefaultThresholds(), testLogger())
	require.NoError(t, err)

	want := []struct {
		present bool
		tier    classify.Tier
	}{
		{false, classify.Absent},
		{false, classify.Absent},
		{true, classify.Dead},
		{true, classify.Dead},
		{false, classify.Absent},
	}
	for i, w := range want {
		s, err := g.Cycle()
		require.NoError(t, err)
		assert.Equal(t, w.present, s.Present, "cycle %d", i)
		assert.Equal(t, w.tier, s.Tier, "cycle %d", i)
	}
}

func TestCycleRendererErrorDoesNotStopOthers(t *testing.T) {
	failing := &failingRenderer{}
	rec := &recorder{}
	g, err := New(&fakeMeter{volts: []float32{1.4}}, classify.DefaultThresholds(), testLogger(), failing, rec)
	require.NoError(t, err)

	_, err = g.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Len(t, rec.samples, 1)
}

func TestCycleMeterErrorReturned(t *testing.T) {
	rec := &recorder{}
	g, err := New(&fakeMeter{err: errors.New("spi gone")}, classify.DefaultThresholds(), testLogger(), rec)
	require.NoError(t, err)

	_, err = g.Cycle()
	assert.Error(t, err)
	assert.Empty(t, rec.samples, "renderers must not run without a measurement")
}

func TestLastSample(t *testing.T) {
	g, err := New(&fakeMeter{volts: []float32{1.55}}, classify.DefaultThresholds(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, Sample{}, g.Last())
	s, err := g.Cycle()
	require.NoError(t, err)
	assert.Equal(t, s, g.Last())
}

func TestNewRejectsBadThresholds(t *testing.T) {
	bad := classify.DefaultThresholds()
	bad.Low = 2.0
	_, err := New(&fakeMeter{volts: []float32{0}}, bad, testLogger())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	g, err := New(&fakeMeter{volts: []float32{1.4}}, classify.DefaultThresholds(), testLogger(), rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, time.Millisecond)
	}()

	// Let at least one cycle through, then stop.
	assert.Eventually(t, func() bool { return g.Last().Present }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
	assert.NotEmpty(t, rec.samples)
}
