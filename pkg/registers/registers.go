package registers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/inkbird-exporter/pkg/collector"
	"github.com/inkbird-exporter/pkg/config"
	"github.com/inkbird-exporter/pkg/logger"
	"github.com/inkbird-exporter/pkg/metrics"
)

// Module 可选采集器的开关与构造函数
type Module struct {
	Enabled bool
	Name    string
	NewFunc func() Collector
}

// Exporter 导出器运行所需的全部指标对象
type Exporter struct {
	Registry *prometheus.Registry
	Factory  *metrics.MetricFactory
	Sink     *collector.ProbeSink
	Observer *collector.AcquirerMetrics
	Agent    Agent
}

// InitPromRegistry 创建注册器与探针指标，注册并启动启用的后台采集器
//
// Registry 供 HTTP /metrics 暴露；Agent 在无采集器启用时仍可安全 Shutdown
func InitPromRegistry(ctx context.Context, enableProcess bool, cfg *config.Config) (*Exporter, error) {
	promReg := metrics.NewRegistry(enableProcess)
	factory := metrics.NewMetricFactory(metrics.NewPromRegistry(promReg))

	exp := &Exporter{
		Registry: promReg,
		Factory:  factory,
		Sink:     collector.NewProbeSink(factory),
		Observer: collector.NewAcquirerMetrics(factory),
	}

	agent := NewAgent(cfg.Monitor.Interval)
	registered := RegisterCollectors(agent, cfg, factory)
	exp.Agent = agent

	if len(registered) == 0 {
		logger.Debug("no background collectors enabled")
		return exp, nil
	}
	if err := agent.Start(ctx); err != nil {
		logger.Error("failed to start collector agent", zap.Error(err))
		return nil, err
	}
	return exp, nil
}

// RegisterCollectors 按配置开关注册采集器，新增采集器只需在 modules 中加一项
func RegisterCollectors(agent Agent, cfg *config.Config, metricFactory *metrics.MetricFactory) []Collector {
	modules := []Module{
		{
			Enabled: cfg.Monitor.Host.Enable,
			Name:    "host",
			NewFunc: func() Collector {
				return collector.NewHostCollector(metricFactory, nil)
			},
		},
	}

	var registered []Collector
	for _, m := range modules {
		if !m.Enabled {
			logger.Debug("collector disabled", zap.String("name", m.Name))
			continue
		}
		c := m.NewFunc()
		agent.Register(c)
		registered = append(registered, c)
	}

	names := make([]string, 0, len(registered))
	for _, c := range registered {
		names = append(names, c.Name())
	}
	logger.Debug("enabled collectors registered", zap.Strings("collectors", names))
	return registered
}
