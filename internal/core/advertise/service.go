// Package advertise 提供通告管道的核心实现
//
// 管道把任意多个调用方注册的 (key, value) 事实合并进一个去重存储，
// 并保证无论有多少调用方、注册了多少次，重通告工作始终只由一个
// 后台 worker 承担。调用方永远不会因为通告失败而收到错误：
// 失败只进入 LastError 诊断，由 worker 的周期重试最终补救。
package advertise

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/BuildSeash/seattlelib-v2/internal/util/logger"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
	"github.com/BuildSeash/seattlelib-v2/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("advertise")

// ============================================================================
//                              服务实现
// ============================================================================

// Service 通告管道服务
//
// 持有事实存储、后端列表和后台 worker 的运行守卫。所有状态都挂在
// 实例上，同一进程可以创建多个互不干扰的管道。
type Service struct {
	config   advertiseif.Config
	backends []advertiseif.Announcer
	handles  advertiseif.HandleGenerator

	store *Store

	// limiter 限制注册路径上的立即通告；nil 表示不限速
	limiter *rate.Limiter

	// workerActive 单槽运行守卫：true 表示有 worker 在运行
	workerActive atomic.Bool

	// sweeps 已完成的重通告轮数
	sweeps atomic.Uint64

	// lastErr 最近一次 worker 失败（只覆盖，不累积）
	lastErr   advertiseif.ErrorRecord
	lastErrMu sync.Mutex

	closed atomic.Bool
}

// NewService 创建通告管道服务
//
// backends 的顺序即通告的固定优先级顺序。
func NewService(config advertiseif.Config, backends []advertiseif.Announcer, handles advertiseif.HandleGenerator) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("advertise config: %w", err)
	}
	if len(backends) == 0 {
		return nil, advertiseif.ErrNoBackends
	}
	if handles == nil {
		return nil, fmt.Errorf("handle generator is required")
	}

	s := &Service{
		config:   config,
		backends: backends,
		handles:  handles,
		store:    NewStore(),
	}
	if config.DispatchRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.DispatchRate), config.DispatchBurst)
	}
	return s, nil
}

// ============================================================================
//                              注册 API
// ============================================================================

// Announce 注册一条事实并返回其句柄
//
// 注册立即生效：事实进入存储后先做一次尽力而为的即时通告
// （在存储锁之外），随后确保后台 worker 在运行。即时通告的失败
// 被吞掉，由 worker 的下一轮重试补救，因此本方法只会因为参数
// 非法或管道已关闭而失败。
func (s *Service) Announce(ctx context.Context, key, value string) (types.Handle, error) {
	if s.closed.Load() {
		return "", advertiseif.ErrClosed
	}
	if key == "" {
		return "", advertiseif.ErrEmptyKey
	}

	h := s.handles.NewHandle()
	fact := advertiseif.Fact{Key: key, Value: value}
	s.store.Add(fact, h)

	log.Debug("fact registered",
		"key", key,
		"handle", h.ShortString())

	// 即时通告在锁外进行，且受可选的速率限制；被限速跳过的
	// 通告同样由 worker 补上
	if s.limiter == nil || s.limiter.Allow() {
		s.dispatch(ctx, fact)
	}

	s.ensureWorker()
	return h, nil
}

// StopAnnounce 撤销一次注册
//
// 对未知或已撤销的句柄是 no-op。撤销不会通知查找服务提前删除
// 记录：事实只是不再出现在下一轮重通告里，由 TTL 自然老化。
func (s *Service) StopAnnounce(h types.Handle) {
	if s.store.Remove(h) {
		log.Debug("fact unregistered", "handle", h.ShortString())
	}
}

// ============================================================================
//                              诊断
// ============================================================================

// LastError 返回 worker 观测到的最近一次失败
//
// 尚无失败时返回零值记录。仅用于监控，不用于控制流。
func (s *Service) LastError() advertiseif.ErrorRecord {
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	return s.lastErr
}

// setLastError 覆盖失败记录
func (s *Service) setLastError(err error) {
	s.lastErrMu.Lock()
	s.lastErr = advertiseif.ErrorRecord{
		Time:    time.Now(),
		Message: err.Error(),
	}
	s.lastErrMu.Unlock()
}

// Stats 返回管道统计
func (s *Service) Stats() advertiseif.Stats {
	facts, handles := s.store.Len()
	return advertiseif.Stats{
		Facts:        facts,
		Handles:      handles,
		Sweeps:       s.sweeps.Load(),
		WorkerActive: s.workerActive.Load(),
	}
}

// ============================================================================
//                              生命周期
// ============================================================================

// Close 关闭管道
//
// 清空存储（让 worker 在下一次循环顶部观察到空存储后自然退出），
// 随后关闭所有后端。已发布的通告不会被撤销，由 TTL 老化。
// 幂等：重复调用是 no-op。
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.store.Clear()

	for _, b := range s.backends {
		if err := b.Close(); err != nil {
			log.Debug("backend close failed",
				"backend", b.Name(),
				"err", err)
		}
	}

	log.Info("advertise pipe closed")
	return nil
}

// ============================================================================
//                              通告分发
// ============================================================================

// dispatch 按固定顺序向每个后端做一次尽力而为的通告
//
// 每个后端的失败独立吞掉：一个后端失败不影响其余后端的尝试，
// 也绝不向调用方上抛。正确性依赖 worker 的周期重试在后端恢复后
// 最终通告成功。
func (s *Service) dispatch(ctx context.Context, fact advertiseif.Fact) {
	for _, b := range s.backends {
		if err := b.Announce(ctx, fact.Key, fact.Value, s.config.TTL); err != nil {
			log.Debug("announce failed",
				"backend", b.Name(),
				"key", fact.Key,
				"err", err)
		}
	}
}
