package registers

import "context"

// Agent 管理后台采集器的生命周期
type Agent interface {
	Register(collector Collector)
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Collector 周期性采集器需实现的接口
type Collector interface {
	Name() string                      // 采集器名称（唯一标识）
	Init() error                       // 初始化（预检查资源）
	Collect(ctx context.Context) error // 采集数据（更新指标）
	Close() error                      // 释放资源
}
