// Package advertise 定义通告（advertise）相关接口
//
// 通告模块负责把 (key, value) 事实持续发布到一个或多个查找服务，包括：
// - Central 中心通告服务器（TCP）
// - CentralV2 中心通告服务器（UDP）
// - mDNS 局域网通告
package advertise

import (
	"context"
	"time"

	"github.com/BuildSeash/seattlelib-v2/pkg/types"
)

// ============================================================================
//                              基础类型
// ============================================================================

// Fact 一条被通告的事实：调用方提供的 (key, value) 对
//
// key 和 value 都是不透明数据，系统不解释其内容，也不对
// 语义等价但文本不同的 value 做去重。
type Fact struct {
	// Key 查找键
	Key string

	// Value 与键关联的值
	Value string
}

// ============================================================================
//                              后端接口
// ============================================================================

// Announcer 通告后端
//
// 每个后端对应一种独立的查找服务协议。后端通过返回值报告失败，
// 失败分类见 AnnounceError；任何失败都不会中止其他后端的通告。
type Announcer interface {
	// Name 返回后端名称（用于日志与诊断）
	Name() string

	// Announce 向查找服务发布一条事实
	//
	// ttl 表示该条通告在查找服务上的有效期；超过有效期且未续约的
	// 通告由查找服务自行淘汰。
	Announce(ctx context.Context, key, value string, ttl time.Duration) error

	// Close 关闭后端，释放其持有的资源
	Close() error
}

// ============================================================================
//                              句柄生成
// ============================================================================

// HandleGenerator 句柄生成器
//
// 生成全局唯一的注册句柄，除此之外无副作用。
type HandleGenerator interface {
	// NewHandle 生成一个新的唯一句柄
	NewHandle() types.Handle
}

// ============================================================================
//                              诊断
// ============================================================================

// ErrorRecord 最近一次 worker 观测到的失败
//
// 仅用于监控，不参与控制流。每次新失败都会整体覆盖旧记录，
// 从不累积，也从不自动清除。
type ErrorRecord struct {
	// Time 失败发生时间
	Time time.Time

	// Message 失败描述
	Message string
}

// IsZero 检查是否尚未记录过任何失败
func (r ErrorRecord) IsZero() bool {
	return r.Time.IsZero() && r.Message == ""
}

// Stats 通告管道统计
type Stats struct {
	// Facts 当前存储的事实数
	Facts int

	// Handles 当前存活的句柄数
	Handles int

	// Sweeps 已完成的重通告轮数
	Sweeps uint64

	// WorkerActive 后台 worker 是否在运行
	WorkerActive bool
}
