package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate 探针配置校验
// 轮询间隔决定停止信号的最大响应延迟，不允许过大
// retry-min 不能大于 retry-max
func (p *ProbeConfig) Validate() error {
	if err := valid.Struct(p); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("probe.name cannot be blank")
	}
	if p.PollInterval > 10*time.Second {
		return fmt.Errorf("probe.poll-interval must not exceed 10s, got %s", p.PollInterval)
	}
	if p.RetryMin > p.RetryMax {
		return fmt.Errorf("probe.retry-min (%s) must not exceed probe.retry-max (%s)", p.RetryMin, p.RetryMax)
	}
	if p.StaleTimeout != 0 && p.StaleTimeout < p.PollInterval {
		return fmt.Errorf("probe.stale-timeout (%s) must be 0 or at least probe.poll-interval (%s)", p.StaleTimeout, p.PollInterval)
	}
	return nil
}
