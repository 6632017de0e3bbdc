package monitoring

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.IncSteps()
	m.IncSteps()
	m.IncSubEvents()
	m.IncDiscarded()
	m.ObserveEvent(3, 120)
	m.ObservePass("quenching", nil)
	m.ObservePass("veto", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepsIngested))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubEventsSplit))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDiscarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassesRun.WithLabelValues("veto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PassFailures.WithLabelValues("veto")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PassFailures.WithLabelValues("quenching")))

	// Registering twice on the same registry must fail.
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncSteps()
	m.IncSubEvents()
	m.IncDiscarded()
	m.ObserveEvent(1, 1)
	m.ObservePass("x", nil)
}
