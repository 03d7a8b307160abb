package seattlelib

import (
	"time"

	"github.com/BuildSeash/seattlelib-v2/internal/core/advertise/central"
	"github.com/BuildSeash/seattlelib-v2/internal/core/advertise/centralv2"
	"github.com/BuildSeash/seattlelib-v2/internal/core/advertise/mdns"
	"github.com/BuildSeash/seattlelib-v2/pkg/lib/handle"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 管道配置
	config advertiseif.Config

	// 后端配置（nil 表示不启用）
	central   *central.Config
	centralv2 *centralv2.Config
	mdns      *mdns.Config

	// 自定义后端（追加在内置后端之后）
	extra []advertiseif.Announcer

	// 句柄生成器
	handles advertiseif.HandleGenerator
}

// buildOptions 应用选项
func buildOptions(opts []Option) (*options, error) {
	o := &options{
		config:  advertiseif.DefaultConfig(),
		handles: handle.NewGenerator(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// buildBackends 按固定优先级顺序装配后端
func (o *options) buildBackends() ([]advertiseif.Announcer, error) {
	var backends []advertiseif.Announcer

	closeAll := func() {
		for _, b := range backends {
			_ = b.Close()
		}
	}

	if o.central != nil {
		b, err := central.New(*o.central)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, b)
	}

	if o.centralv2 != nil {
		b, err := centralv2.New(*o.centralv2)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, b)
	}

	if o.mdns != nil {
		b, err := mdns.New(*o.mdns)
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, b)
	}

	backends = append(backends, o.extra...)

	if len(backends) == 0 {
		return nil, ErrNoBackends
	}
	return backends, nil
}

// ============================================================================
//                              管道选项
// ============================================================================

// WithConfig 整体替换管道配置
func WithConfig(config advertiseif.Config) Option {
	return func(o *options) error {
		o.config = config
		return nil
	}
}

// WithTTL 设置通告有效期
func WithTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.config.TTL = ttl
		return nil
	}
}

// WithRedoInterval 设置两轮重通告的起始间隔
func WithRedoInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.config.RedoInterval = interval
		return nil
	}
}

// WithDispatchRate 限制注册路径上立即通告的速率
//
// rate 为每秒次数，burst 为突发容量。worker 的周期性重通告
// 不受此限制。
func WithDispatchRate(rate float64, burst int) Option {
	return func(o *options) error {
		o.config.DispatchRate = rate
		o.config.DispatchBurst = burst
		return nil
	}
}

// WithHandleGenerator 替换句柄生成器
func WithHandleGenerator(g advertiseif.HandleGenerator) Option {
	return func(o *options) error {
		o.handles = g
		return nil
	}
}

// ============================================================================
//                              后端选项
// ============================================================================

// WithCentralServer 启用 TCP 中心通告后端
func WithCentralServer(addr string) Option {
	return func(o *options) error {
		cfg := central.DefaultConfig()
		cfg.Addr = addr
		o.central = &cfg
		return nil
	}
}

// WithCentralConfig 启用 TCP 中心通告后端（完整配置）
func WithCentralConfig(cfg central.Config) Option {
	return func(o *options) error {
		o.central = &cfg
		return nil
	}
}

// WithUDPCentralServer 启用 UDP 中心通告后端
func WithUDPCentralServer(addr string) Option {
	return func(o *options) error {
		cfg := centralv2.DefaultConfig()
		cfg.Addr = addr
		o.centralv2 = &cfg
		return nil
	}
}

// WithMDNS 启用 mDNS 局域网通告后端（默认配置）
func WithMDNS() Option {
	return func(o *options) error {
		cfg := mdns.DefaultConfig()
		o.mdns = &cfg
		return nil
	}
}

// WithMDNSConfig 启用 mDNS 局域网通告后端（完整配置）
func WithMDNSConfig(cfg mdns.Config) Option {
	return func(o *options) error {
		o.mdns = &cfg
		return nil
	}
}

// WithBackend 追加一个自定义通告后端
//
// 自定义后端排在所有内置后端之后，按追加顺序通告。
func WithBackend(b advertiseif.Announcer) Option {
	return func(o *options) error {
		o.extra = append(o.extra, b)
		return nil
	}
}
