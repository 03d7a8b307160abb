package advertise

import (
	"fmt"
	"time"
)

// ============================================================================
//                              配置
// ============================================================================

// Config 通告管道配置
//
// 所有节奏都是管道级常量：没有按调用指定的超时，也没有指数退避。
type Config struct {
	// TTL 每条通告在查找服务上的有效期
	TTL time.Duration

	// RedoInterval 两轮重通告的起始间隔
	//
	// worker 以每轮起始时间为基准计时，即使一轮本身耗时较长，
	// 下一轮也最早在上一轮开始 RedoInterval 之后才启动。
	RedoInterval time.Duration

	// PollInterval 轮间空闲等待的轮询周期
	//
	// worker 不会一次性睡满 RedoInterval，而是按 PollInterval
	// 分段检查经过的时间。
	PollInterval time.Duration

	// ErrorRetryPause worker 因未分类错误退出后，监督者重启它之前的停顿
	ErrorRetryPause time.Duration

	// TransientPause 一轮内单条通告发生瞬时失败后的短暂停顿
	TransientPause time.Duration

	// DispatchRate 注册路径上立即通告的速率上限（次/秒）
	//
	// 0 表示不限速。worker 的周期性重通告不受此限制。
	DispatchRate float64

	// DispatchBurst 立即通告的突发容量（DispatchRate > 0 时生效）
	DispatchBurst int
}

// DefaultConfig 返回默认配置
//
// TTL 与重通告间隔保持 2:1，保证一条通告在下一轮之前不会过期。
func DefaultConfig() Config {
	return Config{
		TTL:             240 * time.Second,
		RedoInterval:    120 * time.Second,
		PollInterval:    10 * time.Second,
		ErrorRetryPause: 300 * time.Second,
		TransientPause:  time.Second,
		DispatchRate:    0,
		DispatchBurst:   8,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", c.TTL)
	}
	if c.RedoInterval <= 0 {
		return fmt.Errorf("redo interval must be positive, got %v", c.RedoInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.PollInterval > c.RedoInterval {
		return fmt.Errorf("poll interval %v exceeds redo interval %v", c.PollInterval, c.RedoInterval)
	}
	if c.ErrorRetryPause <= 0 {
		return fmt.Errorf("error retry pause must be positive, got %v", c.ErrorRetryPause)
	}
	if c.TransientPause < 0 {
		return fmt.Errorf("transient pause must not be negative, got %v", c.TransientPause)
	}
	if c.DispatchRate < 0 {
		return fmt.Errorf("dispatch rate must not be negative, got %v", c.DispatchRate)
	}
	if c.DispatchRate > 0 && c.DispatchBurst <= 0 {
		return fmt.Errorf("dispatch burst must be positive when rate limiting, got %d", c.DispatchBurst)
	}
	return nil
}
