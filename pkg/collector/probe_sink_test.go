package collector

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkbird-exporter/pkg/inkbird"
	"github.com/inkbird-exporter/pkg/metrics"
)

func newFactory() (*prometheus.Registry, *metrics.MetricFactory) {
	reg := metrics.NewRegistry(false)
	return reg, metrics.NewMetricFactory(metrics.NewPromRegistry(reg))
}

func TestProbeSinkExposition(t *testing.T) {
	reg, f := newFactory()
	sink := NewProbeSink(f)

	for _, r := range inkbird.Decode([]byte{0xE4, 0x00, 0xF6, 0xFF}) {
		sink.Update(r.Probe, r.Temperature)
	}

	expected := `
# HELP inkbird_ibt_temperature Temperature in celsius
# TYPE inkbird_ibt_temperature gauge
inkbird_ibt_temperature{probe="0"} 22.8
inkbird_ibt_temperature{probe="1"} NaN
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "inkbird_ibt_temperature"))
}

func TestProbeSinkHoldsLastValue(t *testing.T) {
	_, f := newFactory()
	sink := NewProbeSink(f)

	sink.Update(0, 20)
	sink.Update(0, 21.5)
	assert.Equal(t, 21.5, testutil.ToFloat64(sink.gauge.WithLabelValues("0")))
}

func TestProbeSinkReset(t *testing.T) {
	_, f := newFactory()
	sink := NewProbeSink(f)

	sink.Update(0, 20)
	sink.Update(3, 80)
	sink.Reset()

	assert.Equal(t, 2, sink.Probes())
	assert.True(t, math.IsNaN(testutil.ToFloat64(sink.gauge.WithLabelValues("0"))))
	assert.True(t, math.IsNaN(testutil.ToFloat64(sink.gauge.WithLabelValues("3"))))
	assert.Equal(t, 2, testutil.CollectAndCount(sink.gauge), "reset keeps the series")
}

func TestProbeSinkConcurrentUpdates(t *testing.T) {
	reg, f := newFactory()
	sink := NewProbeSink(f)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sink.Update(w%4, float64(i))
				if i%50 == 0 {
					sink.Reset()
				}
				_, _ = reg.Gather()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 4, sink.Probes())
	for p := 0; p < 4; p++ {
		v := testutil.ToFloat64(sink.gauge.WithLabelValues(strconv.Itoa(p)))
		assert.True(t, math.IsNaN(v) || (v >= 0 && v < 200), "probe %d = %v", p, v)
	}
}

func TestAcquirerMetrics(t *testing.T) {
	reg, f := newFactory()
	m := NewAcquirerMetrics(f)

	m.StateChanged(inkbird.StateIdle, inkbird.StateDiscovering)
	m.Failed(inkbird.StateDiscovering, inkbird.ErrDeviceNotFound)
	m.StateChanged(inkbird.StateDiscovering, inkbird.StateStreaming)
	m.Notified(4)
	m.Notified(4)

	assert.Equal(t, float64(inkbird.StateStreaming), testutil.ToFloat64(m.state))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("streaming")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("discovering")))
	assert.Zero(t, testutil.ToFloat64(m.errors.WithLabelValues("connecting")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications))
	assert.Positive(t, testutil.ToFloat64(m.lastNotification))

	n, err := testutil.GatherAndCount(reg, "inkbird_exporter_state_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, len(inkbird.States), n)
}
