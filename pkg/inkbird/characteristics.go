package inkbird

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkbird-exporter/pkg/ble"
)

// CharacteristicMap 按 UUID 索引一次连接的特征，每次连接重建，不跨重连复用
type CharacteristicMap map[string]ble.Characteristic

// Lookup 按 UUID 查找特征，大小写不敏感
func (m CharacteristicMap) Lookup(uuid string) (ble.Characteristic, bool) {
	c, ok := m[strings.ToLower(uuid)]
	return c, ok
}

func (m CharacteristicMap) require(uuid string) (ble.Characteristic, error) {
	c, ok := m.Lookup(uuid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProtocolMismatch, uuid)
	}
	return c, nil
}

// ResolveCharacteristics 列出所有服务及其特征
// 只有列服务失败才中止；取不到 UUID 的服务或特征、列不出特征的服务都跳过
func ResolveCharacteristics(ctx context.Context, conn ble.Connection) (CharacteristicMap, error) {
	services, err := conn.Services(ctx)
	if err != nil {
		return nil, &TransportError{Op: "list services", Err: err}
	}

	chars := make(CharacteristicMap)
	for _, svc := range services {
		if _, err := svc.UUID(); err != nil {
			continue
		}
		list, err := svc.Characteristics(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TransportError{Op: "list characteristics", Err: err}
			}
			continue
		}
		for _, c := range list {
			uuid, err := c.UUID()
			if err != nil {
				continue
			}
			chars[strings.ToLower(uuid)] = c
		}
	}
	return chars, nil
}
