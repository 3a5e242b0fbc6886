// Package ble 抽象导出器使用的低功耗蓝牙协议栈
// 所有调用都可能失败，调用方把错误一律视为暂时性错误
package ble

import (
	"context"
	"errors"
	"time"
)

// ErrDisconnected 链路断开后 Connection 的调用返回此错误
var ErrDisconnected = errors.New("ble: device disconnected")

// Device 扫描到的外设
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Event 协议栈投递的一次通知
type Event struct {
	// Source 产生该值的特征 ID，与 Characteristic.ID() 一致
	Source string
	Value  []byte
}

// Characteristic 已连接设备上的 GATT 特征
// 会阻塞的调用都接受 ctx，ctx 结束时立即返回
type Characteristic interface {
	// ID 在一次连接内唯一
	ID() string
	UUID() (string, error)
	Write(ctx context.Context, data []byte) error
	// Notifying 本客户端是否已订阅通知
	Notifying() (bool, error)
	StartNotify(ctx context.Context) error
	StopNotify(ctx context.Context) error
}

// Service 已连接设备上的 GATT 服务
type Service interface {
	UUID() (string, error)
	Characteristics(ctx context.Context) ([]Characteristic, error)
}

// Connection 与外设的一条活动链路
type Connection interface {
	Services(ctx context.Context) ([]Service, error)
	// Notifications 最多阻塞 timeout，返回这段时间内到达的事件
	// 空切片且 err 为 nil 表示本次轮询无数据
	Notifications(timeout time.Duration) ([]Event, error)
	Disconnect() error
}

// Transport 适配器层能力
type Transport interface {
	Enable() error
	// Devices 扫描直到 ctx 结束，返回期间可见的外设
	Devices(ctx context.Context) ([]Device, error)
	Connect(ctx context.Context, device Device, timeout time.Duration) (Connection, error)
}
