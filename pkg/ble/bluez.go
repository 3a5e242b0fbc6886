package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

const (
	// eventBuffer 两次轮询之间最多缓存的通知数
	eventBuffer = 64
	// stopScanRetry Scan 尚未真正开始时 StopScan 的重试间隔
	stopScanRetry = 20 * time.Millisecond
)

// BluezTransport 基于 tinygo-org/bluetooth（Linux 上为 BlueZ D-Bus）
type BluezTransport struct {
	adapter *bluetooth.Adapter
	logger  *zap.Logger

	// mu 保护 enabled 与 connections
	mu          sync.Mutex
	enabled     bool
	connections map[string]*bluezConnection // 按设备地址索引
}

// NewBluezTransport 使用默认适配器创建传输层
func NewBluezTransport(logger *zap.Logger) *BluezTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BluezTransport{
		adapter:     bluetooth.DefaultAdapter,
		logger:      logger,
		connections: make(map[string]*bluezConnection),
	}
}

var _ Transport = (*BluezTransport)(nil)

func (t *BluezTransport) Enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return nil
	}
	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	// 适配器在这里上报断链，转给对应连接，使阻塞中的 Notifications 返回 ErrDisconnected
	t.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		addr := device.Address.String()
		t.mu.Lock()
		conn, ok := t.connections[addr]
		t.mu.Unlock()
		if ok {
			t.logger.Debug("link lost", zap.String("address", addr))
			conn.markDisconnected()
		}
	})
	t.enabled = true
	return nil
}

// scanSet 合并同一地址的多次扫描结果
// BlueZ 先上报 InterfacesAdded，名称常在之后的 PropertiesChanged 中才出现
type scanSet struct {
	mu      sync.Mutex
	order   []string
	devices map[string]*Device
}

func newScanSet() *scanSet {
	return &scanSet{devices: make(map[string]*Device)}
}

func (s *scanSet) add(address, name string, rssi int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[address]
	if !ok {
		d = &Device{Address: address}
		s.devices[address] = d
		s.order = append(s.order, address)
	}
	if name != "" {
		d.Name = name
	}
	d.RSSI = rssi
}

func (s *scanSet) list() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Device, 0, len(s.order))
	for _, addr := range s.order {
		out = append(out, *s.devices[addr])
	}
	return out
}

func (t *BluezTransport) Devices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	found := newScanSet()
	done := make(chan struct{})
	go t.stopScanOnDone(ctx, done)

	err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		found.add(result.Address.String(), result.LocalName(), int(result.RSSI))
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return found.list(), nil
}

// stopScanOnDone ctx 结束后停止扫描；Scan 可能尚未开始，StopScan 失败时重试直到 Scan 返回
func (t *BluezTransport) stopScanOnDone(ctx context.Context, done <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-done:
		return
	}
	for {
		if err := t.adapter.StopScan(); err == nil {
			return
		}
		select {
		case <-done:
			return
		case <-time.After(stopScanRetry):
		}
	}
}

func (t *BluezTransport) Connect(ctx context.Context, device Device, timeout time.Duration) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(device.Address)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		d, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{
			ConnectionTimeout: bluetooth.NewDuration(timeout),
		})
		ch <- connectResult{d, err}
	}()

	select {
	case <-ctx.Done():
		// 协议栈的连接无法取消，迟到的成功连接直接断开
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", device.Address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", device.Address, result.err)
		}
		conn := newBluezConnection(t, device.Address)
		conn.device = result.device
		t.mu.Lock()
		t.connections[device.Address] = conn
		t.mu.Unlock()
		return conn, nil
	}
}

func (t *BluezTransport) forget(address string, conn *bluezConnection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connections[address] == conn {
		delete(t.connections, address)
	}
}

type bluezConnection struct {
	transport *BluezTransport
	address   string
	device    bluetooth.Device

	events       chan Event
	disconnected chan struct{}
	once         sync.Once
}

func newBluezConnection(t *BluezTransport, address string) *bluezConnection {
	return &bluezConnection{
		transport:    t,
		address:      address,
		events:       make(chan Event, eventBuffer),
		disconnected: make(chan struct{}),
	}
}

func (c *bluezConnection) markDisconnected() {
	c.once.Do(func() { close(c.disconnected) })
}

// await 在 goroutine 中执行阻塞的协议栈调用，ctx 结束或链路断开时提前返回
func await[T any](ctx context.Context, c *bluezConnection, op string, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	var zero T
	select {
	case r := <-ch:
		if r.err != nil {
			return zero, fmt.Errorf("ble: %s: %w", op, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("ble: %s: %w", op, ctx.Err())
	case <-c.disconnected:
		return zero, ErrDisconnected
	}
}

func (c *bluezConnection) Services(ctx context.Context) ([]Service, error) {
	svcs, err := await(ctx, c, "discover services", func() ([]bluetooth.DeviceService, error) {
		return c.device.DiscoverServices(nil)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(svcs))
	for _, svc := range svcs {
		out = append(out, &bluezService{conn: c, svc: svc})
	}
	return out, nil
}

func (c *bluezConnection) Notifications(timeout time.Duration) ([]Event, error) {
	select {
	case <-c.disconnected:
		return nil, ErrDisconnected
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-c.events:
		out := []Event{ev}
		for {
			select {
			case ev := <-c.events:
				out = append(out, ev)
			default:
				return out, nil
			}
		}
	case <-c.disconnected:
		return nil, ErrDisconnected
	case <-timer.C:
		return nil, nil
	}
}

// push 入队，缓冲区满时丢弃最旧的事件
func (c *bluezConnection) push(ev Event) {
	for {
		select {
		case c.events <- ev:
			return
		default:
		}
		select {
		case <-c.events:
		default:
		}
	}
}

func (c *bluezConnection) Disconnect() error {
	c.transport.forget(c.address, c)
	c.markDisconnected()
	if err := c.device.Disconnect(); err != nil {
		return fmt.Errorf("ble: disconnect %s: %w", c.address, err)
	}
	return nil
}

type bluezService struct {
	conn *bluezConnection
	svc  bluetooth.DeviceService
}

func (s *bluezService) UUID() (string, error) {
	return strings.ToLower(s.svc.UUID().String()), nil
}

func (s *bluezService) Characteristics(ctx context.Context) ([]Characteristic, error) {
	chars, err := await(ctx, s.conn, "discover characteristics", func() ([]bluetooth.DeviceCharacteristic, error) {
		return s.svc.DiscoverCharacteristics(nil)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Characteristic, 0, len(chars))
	for _, ch := range chars {
		out = append(out, &bluezCharacteristic{
			conn: s.conn,
			char: ch,
			id:   strings.ToLower(ch.UUID().String()),
		})
	}
	return out, nil
}

// bluezCharacteristic 的 ID 即小写 UUID
type bluezCharacteristic struct {
	conn      *bluezConnection
	char      bluetooth.DeviceCharacteristic
	id        string
	notifying atomic.Bool
}

func (c *bluezCharacteristic) ID() string { return c.id }

func (c *bluezCharacteristic) UUID() (string, error) { return c.id, nil }

// Write Linux 上 WriteWithoutResponse 对应 GattCharacteristic1.WriteValue（空选项）
func (c *bluezCharacteristic) Write(ctx context.Context, data []byte) error {
	_, err := await(ctx, c.conn, "write "+c.id, func() (int, error) {
		return c.char.WriteWithoutResponse(data)
	})
	return err
}

// Notifying 本客户端是否已订阅；BlueZ 的新连接总是未订阅，状态在本地维护，不阻塞
func (c *bluezCharacteristic) Notifying() (bool, error) {
	return c.notifying.Load(), nil
}

func (c *bluezCharacteristic) StartNotify(ctx context.Context) error {
	_, err := await(ctx, c.conn, "start notify "+c.id, func() (struct{}, error) {
		return struct{}{}, c.char.EnableNotifications(func(buf []byte) {
			value := make([]byte, len(buf))
			copy(value, buf)
			c.conn.push(Event{Source: c.id, Value: value})
		})
	})
	if err != nil {
		return err
	}
	c.notifying.Store(true)
	return nil
}

func (c *bluezCharacteristic) StopNotify(ctx context.Context) error {
	_, err := await(ctx, c.conn, "stop notify "+c.id, func() (struct{}, error) {
		return struct{}{}, c.char.EnableNotifications(nil)
	})
	if err != nil {
		return err
	}
	c.notifying.Store(false)
	return nil
}
