package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkbird-exporter/pkg/inkbird"
	"github.com/inkbird-exporter/pkg/metrics"
)

// AcquirerMetrics 把采集状态机的进度导出为自监控指标（实现 inkbird.Observer）
type AcquirerMetrics struct {
	state            prometheus.Gauge
	transitions      *prometheus.CounterVec
	errors           *prometheus.CounterVec
	notifications    prometheus.Counter
	lastNotification prometheus.Gauge
}

// NewAcquirerMetrics 创建并注册状态机指标
func NewAcquirerMetrics(metricFactory *metrics.MetricFactory) *AcquirerMetrics {
	m := &AcquirerMetrics{
		state:            metricFactory.NewExporterState(),
		transitions:      metricFactory.NewExporterStateTransitions(),
		errors:           metricFactory.NewExporterErrors(),
		notifications:    metricFactory.NewExporterNotifications(),
		lastNotification: metricFactory.NewExporterLastNotification(),
	}
	// 预先创建所有标签，抓取时即可看到 0 值
	for _, s := range inkbird.States {
		m.transitions.WithLabelValues(s.String())
		m.errors.WithLabelValues(s.String())
	}
	return m
}

func (m *AcquirerMetrics) StateChanged(_, to inkbird.State) {
	m.state.Set(float64(to))
	m.transitions.WithLabelValues(to.String()).Inc()
}

func (m *AcquirerMetrics) Failed(state inkbird.State, _ error) {
	m.errors.WithLabelValues(state.String()).Inc()
}

func (m *AcquirerMetrics) Notified(int) {
	m.notifications.Inc()
	m.lastNotification.SetToCurrentTime()
}

var _ inkbird.Observer = (*AcquirerMetrics)(nil)
