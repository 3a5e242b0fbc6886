package inkbird

// State 采集状态机的阶段
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateConnecting
	StateHandshaking
	StateStreaming
	StateDisconnecting
	StateStopped
)

// States 按顺序列出所有阶段，用于为每个阶段导出一条序列
var States = []State{
	StateIdle,
	StateDiscovering,
	StateConnecting,
	StateHandshaking,
	StateStreaming,
	StateDisconnecting,
	StateStopped,
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateDisconnecting:
		return "disconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
