package registers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inkbird-exporter/pkg/logger"
)

// AgentImpl 按固定间隔驱动已注册的采集器
type AgentImpl struct {
	collectors []Collector
	interval   time.Duration
	log        *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAgent 创建采集器管理器
func NewAgent(interval time.Duration) *AgentImpl {
	return &AgentImpl{
		interval: interval,
		log:      logger.Named("collector-agent"),
	}
}

// Register 注册采集器，需在 Start 之前调用
func (r *AgentImpl) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors = append(r.collectors, c)
}

// InitAll 初始化所有采集器，任一失败即返回
func (r *AgentImpl) InitAll() error {
	for _, c := range r.collectors {
		if err := c.Init(); err != nil {
			return fmt.Errorf("collector %s init failed: %w", c.Name(), err)
		}
		r.log.Debug("collector initialized", zap.String("name", c.Name()))
	}
	return nil
}

// Start 初始化采集器并在后台循环采集，直到 ctx 取消或 Shutdown
func (r *AgentImpl) Start(ctx context.Context) error {
	if err := r.InitAll(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	r.log.Debug("collector agent started",
		zap.Duration("interval", r.interval),
		zap.Int("collectors", len(r.collectors)))

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		// 首次采集失败仅警告
		if err := r.CollectAll(ctx); err != nil {
			r.log.Warn("first collection failed", zap.Error(err))
		}
		for {
			select {
			case <-ticker.C:
				_ = r.CollectAll(ctx)
			case <-ctx.Done():
				r.log.Info("collector agent stopped")
				return
			}
		}
	}()
	return nil
}

// Shutdown 停止采集循环并关闭所有采集器
func (r *AgentImpl) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.CloseAll()
}

// CollectAll 依次调用所有采集器；单个失败不影响其它采集器
func (r *AgentImpl) CollectAll(ctx context.Context) error {
	var errs []error
	for _, c := range r.collectors {
		if err := c.Collect(ctx); err != nil {
			r.log.Warn("collection failed", zap.String("name", c.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseAll 关闭所有采集器，返回最后一个错误
func (r *AgentImpl) CloseAll() error {
	var lastErr error
	for _, c := range r.collectors {
		if err := c.Close(); err != nil {
			r.log.Error("failed to close collector", zap.String("name", c.Name()), zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
