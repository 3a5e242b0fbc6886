package inkbird

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/inkbird-exporter/pkg/ble"
	"github.com/inkbird-exporter/pkg/config"
	"github.com/inkbird-exporter/pkg/signal"
)

// Sink 接收解码后的读数
type Sink interface {
	Update(probe int, celsius float64)
	// Reset 把已上报过的探针全部标记为缺失
	Reset()
}

// Observer 接收采集进度（通常用于导出自监控指标）
type Observer interface {
	StateChanged(from, to State)
	Failed(state State, err error)
	Notified(readings int)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State, State) {}
func (nopObserver) Failed(State, error)       {}
func (nopObserver) Notified(int)              {}

// Options 采集循环参数
type Options struct {
	DeviceName        string
	ScanTimeout       time.Duration
	ConnectTimeout    time.Duration
	PollInterval      time.Duration
	RetryMin          time.Duration
	RetryMax          time.Duration
	StaleTimeout      time.Duration // 0 关闭静默检测
	ResetOnDisconnect bool
}

// DefaultOptions 与 config.NewDefaultConfig().Probe 一致
func DefaultOptions() Options {
	return OptionsFromConfig(&config.NewDefaultConfig().Probe)
}

// OptionsFromConfig 由 probe 配置段转换
func OptionsFromConfig(cfg *config.ProbeConfig) Options {
	return Options{
		DeviceName:        cfg.Name,
		ScanTimeout:       cfg.ScanTimeout,
		ConnectTimeout:    cfg.ConnectTimeout,
		PollInterval:      cfg.PollInterval,
		RetryMin:          cfg.RetryMin,
		RetryMax:          cfg.RetryMax,
		StaleTimeout:      cfg.StaleTimeout,
		ResetOnDisconnect: cfg.ResetOnDisconnect,
	}
}

// Acquirer 负责设备生命周期：发现 -> 连接 -> 握手 -> 推流
// 任何失败后等待并从发现阶段重来，直到 RunState 停止
type Acquirer struct {
	transport ble.Transport
	sink      Sink
	run       *signal.RunState
	opts      Options
	logger    *zap.Logger
	observer  Observer

	state    atomic.Int32
	attempts atomic.Int64
}

// AcquirerOption Acquirer 的可选项
type AcquirerOption func(*Acquirer)

// WithObserver 注册状态变化与失败的观察者
func WithObserver(o Observer) AcquirerOption {
	return func(a *Acquirer) {
		if o != nil {
			a.observer = o
		}
	}
}

// NewAcquirer 创建采集循环，零值选项回落到 DefaultOptions
func NewAcquirer(transport ble.Transport, sink Sink, run *signal.RunState, opts Options, logger *zap.Logger, options ...AcquirerOption) *Acquirer {
	def := DefaultOptions()
	if opts.DeviceName == "" {
		opts.DeviceName = def.DeviceName
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = def.ScanTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.RetryMin <= 0 {
		opts.RetryMin = def.RetryMin
	}
	if opts.RetryMax < opts.RetryMin {
		opts.RetryMax = opts.RetryMin
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Acquirer{
		transport: transport,
		sink:      sink,
		run:       run,
		opts:      opts,
		logger:    logger,
		observer:  nopObserver{},
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// State 当前阶段
func (a *Acquirer) State() State { return State(a.state.Load()) }

// Attempts 状态机从发现阶段开始的次数
func (a *Acquirer) Attempts() int64 { return a.attempts.Load() }

func (a *Acquirer) setState(s State) {
	from := State(a.state.Swap(int32(s)))
	if from == s {
		return
	}
	a.logger.Info("phase transition", zap.Stringer("from", from), zap.Stringer("to", s))
	a.observer.StateChanged(from, s)
}

// Run 驱动状态机直到 RunState 停止；设备侧失败不会结束循环，只返回不可恢复错误
func (a *Acquirer) Run() error {
	if a.transport == nil || a.sink == nil || a.run == nil {
		return errors.New("inkbird: acquirer requires a transport, a sink and a run state")
	}
	defer a.setState(StateStopped)

	failures := 0
	for a.run.Running() {
		a.attempts.Add(1)
		streamed, err := a.attempt()
		if err == nil {
			continue
		}

		var rec *RecoverableError
		if !errors.As(err, &rec) {
			return err
		}
		if !a.run.Running() {
			// 失败由停止本身引起
			break
		}

		if streamed {
			failures = 0
		}
		failures++
		delay := backoffDelay(failures, a.opts.RetryMin, a.opts.RetryMax)
		a.observer.Failed(rec.State, rec.Err)
		a.logger.Warn("device unavailable; waiting",
			zap.Stringer("state", rec.State),
			zap.Error(rec.Err),
			zap.Int("failures", failures),
			zap.Duration("delay", delay))

		if !a.run.Wait(delay) {
			break
		}
	}

	a.logger.Info("acquisition stopped", zap.Int64("attempts", a.Attempts()))
	return nil
}

// attempt 执行一轮状态机，streamed 表示本轮是否进入过推流
func (a *Acquirer) attempt() (streamed bool, err error) {
	ctx, cancel := a.run.Context(context.Background())
	defer cancel()

	a.setState(StateDiscovering)
	device, err := a.discover(ctx)
	if err != nil {
		return false, recoverable(StateDiscovering, err)
	}

	a.setState(StateConnecting)
	a.logger.Info("connecting to device", zap.String("address", device.Address), zap.Int("rssi", device.RSSI))
	conn, err := a.transport.Connect(ctx, device, a.opts.ConnectTimeout)
	if err != nil {
		return false, recoverable(StateConnecting, &TransportError{Op: "connect", Err: err})
	}

	a.setState(StateHandshaking)
	chars, err := ResolveCharacteristics(ctx, conn)
	if err != nil {
		a.disconnect(conn, nil)
		return false, recoverable(StateHandshaking, err)
	}
	a.logger.Debug("characteristics resolved", zap.Int("count", len(chars)))

	notify, err := Handshake(ctx, chars)
	if err != nil {
		a.disconnect(conn, nil)
		return false, err
	}

	a.setState(StateStreaming)
	streamErr := a.stream(conn, notify)
	a.disconnect(conn, notify)
	if a.opts.ResetOnDisconnect {
		a.sink.Reset()
	}
	return true, recoverable(StateStreaming, streamErr)
}

func (a *Acquirer) discover(ctx context.Context) (ble.Device, error) {
	if err := a.transport.Enable(); err != nil {
		return ble.Device{}, &TransportError{Op: "enable adapter", Err: err}
	}

	scanCtx, cancel := context.WithTimeout(ctx, a.opts.ScanTimeout)
	defer cancel()

	devices, err := a.transport.Devices(scanCtx)
	if err != nil {
		return ble.Device{}, &TransportError{Op: "list devices", Err: err}
	}
	a.logger.Debug("devices visible", zap.Int("count", len(devices)))

	for _, d := range devices {
		if d.Name == a.opts.DeviceName {
			return d, nil
		}
	}
	return ble.Device{}, fmt.Errorf("%w: no peripheral named %q", ErrDeviceNotFound, a.opts.DeviceName)
}

// stream 把解码后的通知转给 sink，RunState 停止时返回 nil，链路失败时返回错误
func (a *Acquirer) stream(conn ble.Connection, notify ble.Characteristic) error {
	source := notify.ID()
	lastData := time.Now()

	for a.run.Running() {
		events, err := conn.Notifications(a.opts.PollInterval)
		if err != nil {
			return &TransportError{Op: "read notifications", Err: err}
		}

		for _, ev := range events {
			if ev.Source != source {
				continue
			}
			readings := Decode(ev.Value)
			for _, r := range readings {
				a.sink.Update(r.Probe, r.Temperature)
			}
			a.observer.Notified(len(readings))
			lastData = time.Now()
		}

		if a.opts.StaleTimeout > 0 && time.Since(lastData) > a.opts.StaleTimeout {
			return fmt.Errorf("%w: nothing received for %s", ErrStreamStale, a.opts.StaleTimeout)
		}
	}
	return nil
}

// disconnect 尽力而为，错误只记录日志
// 停止时 attempt 的 ctx 已取消，退订使用独立的超时
func (a *Acquirer) disconnect(conn ble.Connection, notify ble.Characteristic) {
	a.setState(StateDisconnecting)
	if notify != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.ConnectTimeout)
		defer cancel()
		if err := notify.StopNotify(ctx); err != nil {
			a.logger.Debug("stop notify failed", zap.Error(err))
		}
	}
	if err := conn.Disconnect(); err != nil {
		a.logger.Debug("disconnect failed", zap.Error(err))
	}
}

// backoffDelay 第 n 次连续失败后的等待（n >= 1）：从 min 起每次翻倍，不超过 max
func backoffDelay(failures int, min, max time.Duration) time.Duration {
	delay := min
	for i := 1; i < failures && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		return max
	}
	return delay
}
