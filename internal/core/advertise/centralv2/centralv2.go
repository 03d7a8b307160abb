// Package centralv2 提供基于 UDP 的中心通告后端
//
// 与 central 后端语义相同，但每次通告只交换一对数据报：
// 请求与响应都是单个 JSON 数据报，没有帧前缀。适合高丢包
// 容忍的场景——丢掉的通告由下一轮重通告补上。
package centralv2

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/BuildSeash/seattlelib-v2/internal/util/logger"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// 包级别日志实例
var log = logger.Logger("advertise.centralv2")

// BackendName 后端名称
const BackendName = "centraludp"

// DefaultTimeout 默认的单次通告超时
const DefaultTimeout = 5 * time.Second

// maxDatagramSize 响应数据报的最大长度
const maxDatagramSize = 64 * 1024

// ============================================================================
//                              线格式
// ============================================================================

// request UDP 通告请求（单数据报 JSON）
type request struct {
	Op         string `json:"op"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	TTLSeconds int64  `json:"ttl"`
}

// response UDP 通告响应
type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ============================================================================
//                              后端实现
// ============================================================================

// Config UDP 中心通告后端配置
type Config struct {
	// Addr 中心服务器地址（host:port）
	Addr string

	// Timeout 等待响应数据报的超时
	Timeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
	}
}

// Backend UDP 中心通告后端
type Backend struct {
	config Config
}

// New 创建 UDP 中心通告后端
func New(config Config) (*Backend, error) {
	if config.Addr == "" {
		return nil, errors.New("centralv2 server addr is required")
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

// Announce 通过单数据报交换发布一条事实
func (b *Backend) Announce(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return advertiseif.NewBackendError(BackendName, errors.New("key is empty"))
	}

	// 亚秒级 TTL 向上取整到 1 秒
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	payload, err := json.Marshal(request{
		Op:         "PUT",
		Key:        key,
		Value:      value,
		TTLSeconds: ttlSeconds,
	})
	if err != nil {
		return advertiseif.NewBackendError(BackendName, err)
	}

	dialer := net.Dialer{Timeout: b.config.Timeout}
	conn, err := dialer.DialContext(ctx, "udp", b.config.Addr)
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

	if _, err := conn.Write(payload); err != nil {
		return b.classify(err)
	}

	buf := make([]byte, maxDatagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		return b.classify(err)
	}

	var resp response
	if err := json.Unmarshal(buf[:n], &resp); err != nil {
		return advertiseif.NewBackendError(BackendName, err)
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
