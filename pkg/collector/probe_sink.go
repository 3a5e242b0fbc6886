package collector

import (
	"math"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkbird-exporter/pkg/metrics"
)

// ProbeSink 把解码后的探针温度写入 inkbird_ibt_temperature{probe}
// 最后一次写入的值一直保留，直到下一次更新或 Reset
type ProbeSink struct {
	gauge *prometheus.GaugeVec

	mu    sync.Mutex
	known map[int]struct{}
}

// NewProbeSink 创建并注册温度指标
func NewProbeSink(metricFactory *metrics.MetricFactory) *ProbeSink {
	return &ProbeSink{
		gauge: metricFactory.NewProbeTemperature(),
		known: make(map[int]struct{}),
	}
}

// Update 设置探针温度；NaN 表示探针未插入
func (s *ProbeSink) Update(probe int, celsius float64) {
	s.mu.Lock()
	s.known[probe] = struct{}{}
	s.mu.Unlock()
	s.gauge.WithLabelValues(strconv.Itoa(probe)).Set(celsius)
}

// Reset 把所有出现过的探针置为 NaN，标签本身保留
func (s *ProbeSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for probe := range s.known {
		s.gauge.WithLabelValues(strconv.Itoa(probe)).Set(math.NaN())
	}
}

// Probes 返回出现过的探针数量
func (s *ProbeSink) Probes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.known)
}
