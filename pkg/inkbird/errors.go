package inkbird

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound 扫描窗口内没有外设广播目标名称
	ErrDeviceNotFound = errors.New("inkbird: device not found")
	// ErrProtocolMismatch 缺少握手所需的特征
	ErrProtocolMismatch = errors.New("inkbird: required characteristic not found")
	// ErrStreamStale 通知流静默超时
	ErrStreamStale = errors.New("inkbird: notification stream stale")
)

// TransportError 一次失败的 BLE 协议栈调用
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inkbird: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RecoverableError 可恢复错误：状态机等待后从发现阶段重新开始
// 设备侧的失败都属于此类
type RecoverableError struct {
	State State
	Err   error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// IsRecoverable err 本身或其包装链中是否有 RecoverableError
func IsRecoverable(err error) bool {
	var rec *RecoverableError
	return errors.As(err, &rec)
}

func recoverable(state State, err error) error {
	if err == nil {
		return nil
	}
	var rec *RecoverableError
	if errors.As(err, &rec) {
		return err
	}
	return &RecoverableError{State: state, Err: err}
}
