package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/inkbird-exporter/pkg/logger"
	"github.com/inkbird-exporter/pkg/metrics"
)

// HostSource 主机数据来源，默认实现基于 gopsutil
type HostSource interface {
	Info(ctx context.Context) (*host.InfoStat, error)
	Temperatures(ctx context.Context) ([]host.TemperatureStat, error)
	Load(ctx context.Context) (*load.AvgStat, error)
}

type gopsutilSource struct{}

func (gopsutilSource) Info(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (gopsutilSource) Temperatures(ctx context.Context) ([]host.TemperatureStat, error) {
	return host.SensorsTemperaturesWithContext(ctx)
}

func (gopsutilSource) Load(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

// HostCollector 采集运行导出器的主机信息（树莓派等网关的 SoC 温度、负载）
type HostCollector struct {
	name   string
	source HostSource
	log    *zap.Logger

	info        *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	load1       prometheus.Gauge

	collectErrors   *prometheus.CounterVec
	collectDuration *prometheus.HistogramVec
}

// NewHostCollector 创建主机采集器；source 为 nil 时使用 gopsutil
func NewHostCollector(metricFactory *metrics.MetricFactory, source HostSource) *HostCollector {
	if source == nil {
		source = gopsutilSource{}
	}
	return &HostCollector{
		name:            "host-collector",
		source:          source,
		log:             logger.Named("host-collector"),
		info:            metricFactory.NewHostInfo(),
		temperature:     metricFactory.NewHostTemperature(),
		load1:           metricFactory.NewHostLoad1(),
		collectErrors:   metricFactory.NewAgentCollectErrorsTotal(),
		collectDuration: metricFactory.NewAgentCollectDurationSeconds(),
	}
}

func (c *HostCollector) Name() string { return c.name }

// Init 主机信息只在启动时读取一次
func (c *HostCollector) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := c.source.Info(ctx)
	if err != nil {
		return fmt.Errorf("read host info: %w", err)
	}
	c.info.WithLabelValues(info.Hostname, info.OS, info.Platform, info.KernelVersion).Set(1)
	c.log.Debug("host info", zap.String("hostname", info.Hostname), zap.String("platform", info.Platform))
	return nil
}

// Collect 更新传感器温度与负载；任一项失败都计入错误数
func (c *HostCollector) Collect(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.collectDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	var errs []error

	temps, err := c.source.Temperatures(ctx)
	// 部分传感器读取失败时 gopsutil 仍返回可用的数据
	if err != nil && len(temps) == 0 {
		errs = append(errs, fmt.Errorf("read sensors: %w", err))
	}
	for _, t := range temps {
		c.temperature.WithLabelValues(t.SensorKey).Set(t.Temperature)
	}

	avg, err := c.source.Load(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("read load: %w", err))
	} else {
		c.load1.Set(avg.Load1)
	}

	if len(errs) > 0 {
		c.collectErrors.WithLabelValues(c.name).Inc()
		return errors.Join(errs...)
	}
	return nil
}

func (c *HostCollector) Close() error { return nil }
