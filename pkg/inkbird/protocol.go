// Package inkbird 通过 BLE 驱动 Inkbird iBBQ 探针温度计：
// 发现设备、完成厂商握手、解码实时温度流，任何失败后重连恢复
package inkbird

// 厂商协议常量
const (
	// DefaultDeviceName 温度计的广播名
	DefaultDeviceName = "iBBQ"

	AuthCharacteristicUUID   = "0000fff2-0000-1000-8000-00805f9b34fb"
	NotifyCharacteristicUUID = "0000fff4-0000-1000-8000-00805f9b34fb"
	EnableCharacteristicUUID = "0000fff5-0000-1000-8000-00805f9b34fb"

	// NoProbeRaw 探针未插入时上报的原始值（0xFFF6）
	NoProbeRaw uint16 = 65526
	// Scale 原始值单位为 0.1 摄氏度
	Scale = 10.0
)

var (
	authPayload = [15]byte{
		0x21, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0xb8, 0x22, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	enableRealtimePayload = [6]byte{0x0b, 0x01, 0x00, 0x00, 0x00, 0x00}
)

// AuthPayload 返回写入 fff2 的登录序列（副本）
func AuthPayload() []byte {
	p := authPayload
	return p[:]
}

// EnableRealtimePayload 返回写入 fff5 的开启实时数据命令（副本）
func EnableRealtimePayload() []byte {
	p := enableRealtimePayload
	return p[:]
}
