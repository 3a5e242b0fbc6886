package inkbird

import (
	"context"

	"github.com/inkbird-exporter/pkg/ble"
)

// Handshake 让温度计进入实时推送模式：
//  1. 向 auth 特征写入登录序列
//  2. 写入开启实时数据命令
//  3. 未订阅时订阅 notify 特征
//
// 严格按序执行，首个失败即结束；设备的中间状态不可观测，调用方须断开重来，不能续做
// 每一步都受 ctx 约束
func Handshake(ctx context.Context, chars CharacteristicMap) (ble.Characteristic, error) {
	auth, err := chars.require(AuthCharacteristicUUID)
	if err != nil {
		return nil, recoverable(StateHandshaking, err)
	}
	if err := auth.Write(ctx, AuthPayload()); err != nil {
		return nil, recoverable(StateHandshaking, &TransportError{Op: "write auth", Err: err})
	}

	enable, err := chars.require(EnableCharacteristicUUID)
	if err != nil {
		return nil, recoverable(StateHandshaking, err)
	}
	if err := enable.Write(ctx, EnableRealtimePayload()); err != nil {
		return nil, recoverable(StateHandshaking, &TransportError{Op: "enable realtime data", Err: err})
	}

	notify, err := chars.require(NotifyCharacteristicUUID)
	if err != nil {
		return nil, recoverable(StateHandshaking, err)
	}
	notifying, err := notify.Notifying()
	if err != nil {
		return nil, recoverable(StateHandshaking, &TransportError{Op: "query notify state", Err: err})
	}
	if !notifying {
		if err := notify.StartNotify(ctx); err != nil {
			return nil, recoverable(StateHandshaking, &TransportError{Op: "start notify", Err: err})
		}
	}
	return notify, nil
}
