// Package central 提供基于 TCP 的中心通告服务器后端
//
// 每次通告建立一条到中心服务器的短连接，发送 PUT 帧并等待确认。
// 服务器侧按 TTL 淘汰过期记录，客户端从不主动删除。
package central

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/BuildSeash/seattlelib-v2/internal/util/logger"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// 包级别日志实例
var log = logger.Logger("advertise.central")

// BackendName 后端名称
const BackendName = "central"

// DefaultTimeout 默认的单次通告超时（覆盖拨号与读写）
const DefaultTimeout = 10 * time.Second

// ============================================================================
//                              配置
// ============================================================================

// Config 中心通告后端配置
type Config struct {
	// Addr 中心服务器地址（host:port）
	Addr string

	// Timeout 单次通告的总超时
	Timeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
	}
}

// ============================================================================
//                              后端实现
// ============================================================================

// Backend TCP 中心通告后端
type Backend struct {
	config Config
}

// New 创建中心通告后端
func New(config Config) (*Backend, error) {
	if config.Addr == "" {
		return nil, errors.New("central server addr is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Backend{config: config}, nil
}

// Name 返回后端名称
func (b *Backend) Name() string {
	return BackendName
}

// Announce 向中心服务器发布一条事实
func (b *Backend) Announce(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ValidateFact(key, value); err != nil {
		return advertiseif.NewBackendError(BackendName, err)
	}

	dialer := net.Dialer{Timeout: b.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", b.config.Addr)
	if err != nil {
		return b.classify(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(b.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return advertiseif.NewBackendError(BackendName, err)
	}

	// 亚秒级 TTL 向上取整到 1 秒，服务器侧要求 TTL 为正
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	req := Request{
		Op:         OpPut,
		Key:        key,
		Value:      value,
		TTLSeconds: ttlSeconds,
	}
	if err := WriteFrame(conn, req); err != nil {
		return b.classify(err)
	}

	var resp Response
	if err := ReadFrame(conn, &resp); err != nil {
		return b.classify(err)
	}
	if !resp.OK {
		return advertiseif.NewBackendError(BackendName, errors.New(resp.Error))
	}

	log.Debug("fact announced",
		"key", key,
		"server", b.config.Addr)
	return nil
}

// Close 关闭后端（无持久资源）
func (b *Backend) Close() error {
	return nil
}

// classify 把网络错误归类为超时或后端失败
func (b *Backend) classify(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return advertiseif.NewTimeoutError(BackendName, err)
	}
	return advertiseif.NewBackendError(BackendName, err)
}
