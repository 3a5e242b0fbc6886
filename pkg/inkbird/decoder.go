package inkbird

import (
	"encoding/binary"
	"math"
)

// Reading 单个探针的温度（摄氏度），探针未插入时 Temperature 为 NaN
type Reading struct {
	Probe       int
	Temperature float64
}

// Connected 是否为真实温度
func (r Reading) Connected() bool { return !math.IsNaN(r.Temperature) }

// Decode 把一次实时通知解码为各探针读数：每个探针一个小端 uint16，单位 0.1 度
// 不做范围检查；空负载与奇数长度负载返回空
func Decode(payload []byte) []Reading {
	if len(payload) == 0 || len(payload)%2 != 0 {
		return nil
	}
	readings := make([]Reading, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		raw := binary.LittleEndian.Uint16(payload[i : i+2])
		readings = append(readings, Reading{Probe: i / 2, Temperature: celsius(raw)})
	}
	return readings
}

func celsius(raw uint16) float64 {
	if raw == NoProbeRaw {
		return math.NaN()
	}
	return float64(raw) / Scale
}
