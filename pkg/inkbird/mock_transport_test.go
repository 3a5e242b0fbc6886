package inkbird

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/inkbird-exporter/pkg/ble"
)

// callLog 记录各 mock 特征的调用顺序
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mockCharacteristic 记录写入与订阅变化；blockWrites 为真时写入阻塞到 ctx 结束
type mockCharacteristic struct {
	mu          sync.Mutex
	uuid        string
	uuidErr     error
	writeErr    error
	queryErr    error
	startErr    error
	stopErr     error
	blockWrites bool
	notifying   bool
	writes      [][]byte
	starts      int
	stops       int
	log         *callLog
}

func newMockCharacteristic(uuid string, log *callLog) *mockCharacteristic {
	return &mockCharacteristic{uuid: uuid, log: log}
}

func (c *mockCharacteristic) ID() string { return "char/" + c.uuid }

func (c *mockCharacteristic) UUID() (string, error) {
	if c.uuidErr != nil {
		return "", c.uuidErr
	}
	return c.uuid, nil
}

func (c *mockCharacteristic) Write(ctx context.Context, data []byte) error {
	c.log.add("write " + c.uuid)
	if c.blockWrites {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) Notifying() (bool, error) {
	c.log.add("notifying " + c.uuid)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifying, c.queryErr
}

func (c *mockCharacteristic) StartNotify(ctx context.Context) error {
	c.log.add("start " + c.uuid)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	c.notifying = true
	return nil
}

func (c *mockCharacteristic) StopNotify(ctx context.Context) error {
	c.log.add("stop " + c.uuid)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.notifying = false
	return c.stopErr
}

func (c *mockCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *mockCharacteristic) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

type mockService struct {
	uuid     string
	uuidErr  error
	charsErr error
	chars    []ble.Characteristic
}

func (s *mockService) UUID() (string, error) {
	if s.uuidErr != nil {
		return "", s.uuidErr
	}
	return s.uuid, nil
}

func (s *mockService) Characteristics(ctx context.Context) ([]ble.Characteristic, error) {
	if s.charsErr != nil {
		return nil, s.charsErr
	}
	return s.chars, nil
}

// probeChars 正常温度计的特征集合
type probeChars struct {
	auth, enable, notify *mockCharacteristic
	log                  *callLog
}

func newProbeChars() *probeChars {
	log := &callLog{}
	return &probeChars{
		auth:   newMockCharacteristic(AuthCharacteristicUUID, log),
		enable: newMockCharacteristic(EnableCharacteristicUUID, log),
		notify: newMockCharacteristic(NotifyCharacteristicUUID, log),
		log:    log,
	}
}

func (p *probeChars) services() []ble.Service {
	return []ble.Service{
		&mockService{uuid: "00001800-0000-1000-8000-00805f9b34fb"},
		&mockService{
			uuid:  "0000fff0-0000-1000-8000-00805f9b34fb",
			chars: []ble.Characteristic{p.auth, p.enable, p.notify},
		},
	}
}

func (p *probeChars) charMap() CharacteristicMap {
	return CharacteristicMap{
		AuthCharacteristicUUID:   p.auth,
		EnableCharacteristicUUID: p.enable,
		NotifyCharacteristicUUID: p.notify,
	}
}

// mockConnection 投递测试推入的事件
type mockConnection struct {
	mu           sync.Mutex
	chars        *probeChars
	servicesErr  error
	events       chan ble.Event
	readErr      chan error
	disconnects  int
	disconnected bool
}

func newMockConnection(chars *probeChars) *mockConnection {
	return &mockConnection{
		chars:   chars,
		events:  make(chan ble.Event, 16),
		readErr: make(chan error, 1),
	}
}

func (c *mockConnection) Services(ctx context.Context) ([]ble.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.servicesErr != nil {
		return nil, c.servicesErr
	}
	return c.chars.services(), nil
}

func (c *mockConnection) Notifications(timeout time.Duration) ([]ble.Event, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-c.events:
		return []ble.Event{ev}, nil
	case err := <-c.readErr:
		return nil, err
	case <-t.C:
		return nil, nil
	}
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.disconnected = true
	return nil
}

func (c *mockConnection) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// SimulateNotification 以 notify 特征的名义推入负载
func (c *mockConnection) SimulateNotification(payload []byte) {
	c.events <- ble.Event{Source: c.chars.notify.ID(), Value: payload}
}

// SimulateLinkLoss 让下一次轮询失败
func (c *mockConnection) SimulateLinkLoss() {
	c.readErr <- ble.ErrDisconnected
}

// mockTransport 前 hideFor 次扫描看不到温度计，连接由 newConn 提供
type mockTransport struct {
	mu         sync.Mutex
	hideFor    int
	scans      int
	connects   int
	connectErr error
	name       string
	newConn    func(n int) *mockConnection
	conns      []*mockConnection
}

func newMockTransport(hideFor int) *mockTransport {
	return &mockTransport{
		hideFor: hideFor,
		name:    DefaultDeviceName,
		newConn: func(int) *mockConnection { return newMockConnection(newProbeChars()) },
	}
}

func (t *mockTransport) Enable() error { return nil }

func (t *mockTransport) Devices(ctx context.Context) ([]ble.Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scans++
	devices := []ble.Device{{Name: "SomethingElse", Address: "11:22:33:44:55:66"}}
	if t.scans > t.hideFor {
		devices = append(devices, ble.Device{Name: t.name, Address: "AA:BB:CC:DD:EE:FF", RSSI: -60})
	}
	return devices, nil
}

func (t *mockTransport) Connect(ctx context.Context, device ble.Device, timeout time.Duration) (ble.Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	conn := t.newConn(t.connects)
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *mockTransport) scanCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scans
}

func (t *mockTransport) connectCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

func (t *mockTransport) latestConnection() *mockConnection {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

// recordingSink 保存每个探针的最新值
type recordingSink struct {
	mu     sync.Mutex
	values map[int]float64
	resets int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{values: make(map[int]float64)}
}

func (s *recordingSink) Update(probe int, celsius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[probe] = celsius
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	for k := range s.values {
		s.values[k] = math.NaN()
	}
}

func (s *recordingSink) get(probe int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[probe]
	return v, ok
}

func (s *recordingSink) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// recordingObserver 记录状态切换与失败
type recordingObserver struct {
	mu          sync.Mutex
	transitions []State
	failures    []State
	readings    int
}

func (o *recordingObserver) StateChanged(_, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, to)
}

func (o *recordingObserver) Failed(state State, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, state)
}

func (o *recordingObserver) Notified(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.readings += n
}

var errBoom = errors.New("boom")

var (
	_ ble.Transport      = (*mockTransport)(nil)
	_ ble.Connection     = (*mockConnection)(nil)
	_ ble.Characteristic = (*mockCharacteristic)(nil)
	_ ble.Service        = (*mockService)(nil)
	_ Sink               = (*recordingSink)(nil)
	_ Observer           = (*recordingObserver)(nil)
)

func eventFrom(source string, value []byte) ble.Event {
	return ble.Event{Source: source, Value: value}
}
