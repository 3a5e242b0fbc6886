package metrics

import "github.com/prometheus/client_golang/prometheus"

// MetricFactory 指标工厂，所有指标经由它创建并注册到同一个注册器
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewRegistry 创建导出用的注册器；不含 Go 运行时指标，进程指标可选
func NewRegistry(enableProcess bool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if enableProcess {
		reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	return reg
}
