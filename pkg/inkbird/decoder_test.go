package inkbird

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTwoProbes(t *testing.T) {
	readings := Decode([]byte{0xE4, 0x00, 0x76, 0xFF})
	require.Len(t, readings, 2)

	assert.Equal(t, 0, readings[0].Probe)
	assert.Equal(t, 22.8, readings[0].Temperature)
	assert.True(t, readings[0].Connected())

	// 不做范围截断：0xFF76 不是占位值
	assert.Equal(t, 1, readings[1].Probe)
	assert.Equal(t, 6539.8, readings[1].Temperature)
}

func TestDecodeNoProbeSentinel(t *testing.T) {
	// 65526 = 0xFFF6，小端字节序为 F6 FF
	readings := Decode([]byte{0xF6, 0xFF})
	require.Len(t, readings, 1)
	assert.True(t, math.IsNaN(readings[0].Temperature))
	assert.False(t, readings[0].Connected())
}

func TestDecodeNearSentinelIsTemperature(t *testing.T) {
	// 36 FF = 0xFF36 = 65334，不是占位值
	readings := Decode([]byte{0x36, 0xFF})
	require.Len(t, readings, 1)
	assert.Equal(t, 6533.4, readings[0].Temperature)
	assert.True(t, readings[0].Connected())
}

func TestDecodeEmptyAndOdd(t *testing.T) {
	for _, payload := range [][]byte{nil, {}, {0x01}, {0xE4, 0x00, 0x76}} {
		assert.Empty(t, Decode(payload), "payload %x", payload)
	}
}

func TestDecodeEveryRawValue(t *testing.T) {
	payload := make([]byte, 2)
	for raw := 0; raw <= math.MaxUint16; raw++ {
		binary.LittleEndian.PutUint16(payload, uint16(raw))
		readings := Decode(payload)
		require.Len(t, readings, 1)

		got := readings[0].Temperature
		if uint16(raw) == NoProbeRaw {
			require.True(t, math.IsNaN(got), "raw %d", raw)
			continue
		}
		require.Equal(t, float64(raw)/10.0, got, "raw %d", raw)
	}
}

func TestDecodeLengthMatchesProbeCount(t *testing.T) {
	for n := 0; n <= 8; n++ {
		payload := make([]byte, 2*n)
		for i := range payload {
			payload[i] = byte(i * 7)
		}
		readings := Decode(payload)
		assert.Len(t, readings, n)
		for i, r := range readings {
			assert.Equal(t, i, r.Probe)
		}
	}
}
