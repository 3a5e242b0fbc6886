package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewHostInfo 主机元信息，值恒为 1
func (m *MetricFactory) NewHostInfo() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkbird_exporter_host_info",
		Help: "Host running the exporter (value is always 1)",
	}, []string{"hostname", "os", "platform", "kernel"})
	m.reg.MustRegister(g)
	return g
}

// NewHostTemperature 主机传感器温度（如树莓派 SoC）
func (m *MetricFactory) NewHostTemperature() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkbird_exporter_host_temperature_celsius",
		Help: "Host sensor temperature in celsius",
	}, []string{"sensor"})
	m.reg.MustRegister(g)
	return g
}

func (m *MetricFactory) NewHostLoad1() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inkbird_exporter_host_load1",
		Help: "1 minute load average of the host",
	})
	m.reg.MustRegister(g)
	return g
}
