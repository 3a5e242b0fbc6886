package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewProbeTemperature 探针温度，单位摄氏度；未插入的探针为 NaN
// 标签说明：
//
//	probe: 探针序号（"0", "1", ...）
func (m *MetricFactory) NewProbeTemperature() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkbird_ibt_temperature",
		Help: "Temperature in celsius",
	}, []string{"probe"})
	m.reg.MustRegister(g)
	return g
}

// NewExporterState 采集状态机当前阶段（数值见 inkbird.State）
func (m *MetricFactory) NewExporterState() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inkbird_exporter_state",
		Help: "Current acquisition phase (0=idle 1=discovering 2=connecting 3=handshaking 4=streaming 5=disconnecting 6=stopped)",
	})
	m.reg.MustRegister(g)
	return g
}

// NewExporterStateTransitions 按目标阶段统计的状态切换次数
func (m *MetricFactory) NewExporterStateTransitions() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inkbird_exporter_state_transitions_total",
		Help: "Phase transitions by target phase",
	}, []string{"state"})
	m.reg.MustRegister(c)
	return c
}

// NewExporterErrors 按失败阶段统计的可恢复错误次数
func (m *MetricFactory) NewExporterErrors() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inkbird_exporter_errors_total",
		Help: "Recoverable device errors by phase",
	}, []string{"phase"})
	m.reg.MustRegister(c)
	return c
}

func (m *MetricFactory) NewExporterNotifications() prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inkbird_exporter_notifications_total",
		Help: "Temperature notifications received from the device",
	})
	m.reg.MustRegister(c)
	return c
}

func (m *MetricFactory) NewExporterLastNotification() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inkbird_exporter_last_notification_timestamp_seconds",
		Help: "Unix time of the last temperature notification",
	})
	m.reg.MustRegister(g)
	return g
}
