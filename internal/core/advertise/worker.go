package advertise

import (
	"context"
	"fmt"
	"time"

	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// ============================================================================
//                              Worker 监督
// ============================================================================

// ensureWorker 确保后台 worker 在运行
//
// 以非阻塞方式抢占单槽运行守卫：抢到则启动监督任务，没抢到说明
// 已有 worker 在运行，直接返回。
func (s *Service) ensureWorker() {
	if !s.workerActive.CompareAndSwap(false, true) {
		return
	}
	go s.superviseWorker()
}

// superviseWorker 监督任务
//
// 循环运行 worker：
//   - 正常返回（存储已空）→ 释放运行守卫并结束，之后的 Announce
//     可以再次抢占守卫启动新 worker；
//   - 异常返回 → 记入诊断，停顿 ErrorRetryPause 后原地重启，期间
//     不释放守卫，保证系统中始终至多一个 worker。
//
// 这个循环从不因错误而终止；只有干净退出才释放守卫。
func (s *Service) superviseWorker() {
	log.Info("reannounce worker started")

	for {
		err := s.runWorker()
		if err == nil {
			s.workerActive.Store(false)
			log.Info("reannounce worker stopped")

			// 守卫释放与"观察到空存储"之间有窗口：此间注册的事实
			// 会看到守卫仍被持有而不再启动 worker。重查一次存储，
			// 必要时重新抢占守卫继续运行。
			if !s.store.Empty() && s.workerActive.CompareAndSwap(false, true) {
				log.Info("reannounce worker resumed")
				continue
			}
			return
		}

		s.setLastError(err)
		log.Warn("reannounce worker failed, restarting",
			"err", err,
			"retry_in", s.config.ErrorRetryPause)

		time.Sleep(s.config.ErrorRetryPause)

		if s.closed.Load() {
			s.workerActive.Store(false)
			return
		}
	}
}

// runWorker 重通告 worker 主体
//
// 存储非空时每 RedoInterval 重通告一遍所有事实，轮间按
// PollInterval 分段空转等待。在循环顶部观察到空存储时返回 nil，
// 这是唯一的非错误退出路径。panic 被捕获并转换为错误，交由
// 监督任务按异常退出处理。
func (s *Service) runWorker() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reannounce worker panic: %v", r)
		}
	}()

	for {
		if s.store.Empty() {
			return nil
		}

		start := time.Now()
		if err := s.sweepOnce(); err != nil {
			return err
		}
		s.sweeps.Add(1)

		// 不一次性睡满整个间隔：按固定周期分段检查经过时间。
		// 存储变化并不会提前唤醒（接受的延迟，不是正确性问题）。
		for time.Since(start) < s.config.RedoInterval {
			time.Sleep(s.config.PollInterval)
		}
	}
}

// sweepOnce 执行一轮重通告
//
// 整轮持有存储锁，包括对后端的网络调用：一轮看到的事实集合不被
// 并发注册交错，代价是注册操作在一轮期间被阻塞。这是有意的取舍，
// 偏向通告一致性而非注册延迟。
func (s *Service) sweepOnce() error {
	ctx := context.Background()

	return s.store.Sweep(func(fact advertiseif.Fact) error {
		for _, b := range s.backends {
			err := b.Announce(ctx, fact.Key, fact.Value, s.config.TTL)
			if err == nil {
				continue
			}

			// 瞬时失败：记入诊断，短暂停顿后继续本轮
			if advertiseif.IsTransient(err) {
				s.setLastError(err)
				log.Debug("sweep announce failed",
					"backend", b.Name(),
					"key", fact.Key,
					"err", err)
				time.Sleep(s.config.TransientPause)
				continue
			}

			// 未分类失败：中止本轮，上抛给监督任务
			return fmt.Errorf("sweep aborted at key %q: %w", fact.Key, err)
		}
		return nil
	})
}
