package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

// NotifyOnSignal 监听退出信号（SIGINT/SIGTERM），收到后停止 RunState
// 返回的函数用于取消监听
func NotifyOnSignal(rs *RunState, logger *zap.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		Watch(rs, logger, sigChan, done)
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// Watch 将信号通道转发为 RunState 停止（便于测试注入）
func Watch(rs *RunState, logger *zap.Logger, sigs <-chan os.Signal, done <-chan struct{}) {
	select {
	case sig := <-sigs:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		rs.Stop("signal " + sig.String())
	case <-rs.Done():
	case <-done:
	}
}

// WaitForShutdown 阻塞直到 RunState 停止，再在超时控制下执行优雅关闭
func WaitForShutdown(rs *RunState, logger *zap.Logger, shutdownFunc func(ctx context.Context) error) {
	logger.Info("service running, waiting for SIGINT/SIGTERM...")

	<-rs.Done()
	logger.Info("shutdown requested", zap.String("reason", rs.Reason()))

	if shutdownFunc == nil {
		return
	}

	// 超时控制关闭逻辑
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- shutdownFunc(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return
		}
		logger.Info("graceful shutdown completed successfully")
	case <-ctx.Done():
		logger.Warn("shutdown timeout exceeded", zap.Duration("timeout", defaultShutdownTimeout))
	}
}
