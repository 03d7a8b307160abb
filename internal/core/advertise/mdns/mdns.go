// Package mdns 提供基于 mDNS 的局域网通告后端
//
// 每条事实发布为一个 mDNS 服务实例，(key, value) 写入 TXT 记录，
// 局域网内的对端无需任何中心服务器即可查到。记录按 TTL 惰性淘汰：
// 过期条目在下一次通告时被剪除并停止广播。
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/BuildSeash/seattlelib-v2/internal/util/logger"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// 包级别日志实例
var log = logger.Logger("advertise.mdns")

// BackendName 后端名称
const BackendName = "mdns"

// ============================================================================
//                              配置
// ============================================================================

const (
	// DefaultServiceTag 默认服务标签
	DefaultServiceTag = "_seattle-advertise._udp"

	// DefaultDomain 默认域名
	DefaultDomain = "local."

	// DefaultPort 服务记录中使用的端口
	//
	// 通告本身不监听该端口，它只是 SRV 记录的必填字段。
	DefaultPort = 63129
)

// Config mDNS 通告后端配置
type Config struct {
	// ServiceTag 服务标签（用于区分不同的通告域）
	ServiceTag string

	// Domain 域名
	Domain string

	// Port SRV 记录端口
	Port int

	// IPs 广播的本机地址（空表示自动探测）
	IPs []net.IP

	// Interface 指定网络接口（空表示所有接口）
	Interface string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ServiceTag: DefaultServiceTag,
		Domain:     DefaultDomain,
		Port:       DefaultPort,
	}
}

// ============================================================================
//                              后端实现
// ============================================================================

// server 抽象 mDNS 服务器（测试替换点）
type server interface {
	Shutdown() error
}

// entry 一条在播的通告
type entry struct {
	srv     server
	value   string
	expires time.Time
}

// Backend mDNS 通告后端
type Backend struct {
	config Config

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	// newServer 创建底层 mDNS 服务器；测试中替换为桩实现
	newServer func(instance string, txt []string) (server, error)
}

// New 创建 mDNS 通告后端
func New(config Config) (*Backend, error) {
	if config.ServiceTag == "" {
		config.ServiceTag = DefaultServiceTag
	}
	if config.Domain == "" {
		config.Domain = DefaultDomain
	}
	if config.Port <= 0 {
		config.Port = DefaultPort
	}

	if len(config.IPs) == 0 {
		ips, err := getLocalIPs()
		if err != nil {
			return nil, fmt.Errorf("detect local ips: %w", err)
		}
		if len(ips) == 0 {
			return nil, errors.New("no usable local ip address")
		}
		config.IPs = ips
	}

	b := &Backend{
		config:  config,
		entries: make(map[string]*entry),
	}
	b.newServer = b.startServer
	return b, nil
}

// Name 返回后端名称
func (b *Backend) Name() string {
	return BackendName
}

// Announce 把一条事实发布为局域网 mDNS 服务记录
//
// 同一 key 重复通告相同 value 时只续约有效期；value 变化时替换
// 在播记录。每次通告顺带剪除已过期的其他记录。
func (b *Backend) Announce(_ context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return advertiseif.NewBackendError(BackendName, errors.New("key is empty"))
	}

	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return advertiseif.NewBackendError(BackendName, errors.New("mdns backend closed"))
	}

	b.pruneLocked(now)

	if existing, ok := b.entries[key]; ok {
		if existing.value == value {
			existing.expires = now.Add(ttl)
			return nil
		}
		// value 变化：替换在播记录
		_ = existing.srv.Shutdown()
		delete(b.entries, key)
	}

	txt := []string{key + "=" + value}
	srv, err := b.newServer(instanceName(key), txt)
	if err != nil {
		return advertiseif.NewBackendError(BackendName, err)
	}

	b.entries[key] = &entry{
		srv:     srv,
		value:   value,
		expires: now.Add(ttl),
	}

	log.Debug("fact published",
		"key", key,
		"instance", instanceName(key))
	return nil
}

// Close 停止所有在播记录
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for key, e := range b.entries {
		_ = e.srv.Shutdown()
		delete(b.entries, key)
	}
	return nil
}

// pruneLocked 停止并移除已过期的在播记录（须持锁调用）
func (b *Backend) pruneLocked(now time.Time) {
	for key, e := range b.entries {
		if now.After(e.expires) {
			_ = e.srv.Shutdown()
			delete(b.entries, key)
			log.Debug("expired fact unpublished", "key", key)
		}
	}
}

// ============================================================================
//                              mDNS 服务
// ============================================================================

// startServer 启动真实的 mDNS 服务器
func (b *Backend) startServer(instance string, txt []string) (server, error) {
	service, err := mdns.NewMDNSService(
		instance,
		b.config.ServiceTag,
		b.config.Domain,
		"",
		b.config.Port,
		b.config.IPs,
		txt,
	)
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}

	serverConfig := &mdns.Config{
		Zone: service,
	}

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err != nil {
			log.Warn("interface not found",
				"interface", b.config.Interface,
				"err", err)
		} else {
			serverConfig.Iface = iface
		}
	}

	srv, err := mdns.NewServer(serverConfig)
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	return srv, nil
}

// instanceName 把任意 key 规整为合法的 DNS 实例名
//
// 非字母数字字符替换为连字符，长度截断到 63 字节。
func instanceName(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r - 'A' + 'a')
		default:
			sb.WriteRune('-')
		}
	}
	name := strings.Trim(sb.String(), "-")
	if name == "" {
		name = "fact"
	}
	name = "seattle-" + name
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// getLocalIPs 探测可广播的本机地址
func getLocalIPs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP
			if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			ips = append(ips, ip)
		}
	}
	return ips, nil
}
