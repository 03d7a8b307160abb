package advertise

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuildSeash/seattlelib-v2/pkg/lib/handle"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// fakeBackend 记录所有通告调用的测试后端
//
// failWith 非 nil 时每次通告都按其返回值决定成败。
type fakeBackend struct {
	name string

	mu       sync.Mutex
	calls    []advertiseif.Fact
	failWith func(key, value string) error
	closed   bool
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Announce(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	f.calls = append(f.calls, advertiseif.Fact{Key: key, Value: value})
	fn := f.failWith
	f.mu.Unlock()

	if fn != nil {
		return fn(key, value)
	}
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) factCount(fact advertiseif.Fact) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == fact {
			n++
		}
	}
	return n
}

// testConfig 把所有时间参数缩到毫秒级，让 worker 测试跑得快
func testConfig() advertiseif.Config {
	cfg := advertiseif.DefaultConfig()
	cfg.TTL = 500 * time.Millisecond
	cfg.RedoInterval = 20 * time.Millisecond
	cfg.PollInterval = 2 * time.Millisecond
	cfg.ErrorRetryPause = 10 * time.Millisecond
	cfg.TransientPause = 0
	return cfg
}

func newTestService(t *testing.T, backends ...advertiseif.Announcer) *Service {
	t.Helper()
	s, err := NewService(testConfig(), backends, handle.NewGenerator())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ============================================================================
//                              构造测试
// ============================================================================

func TestNewServiceValidation(t *testing.T) {
	gen := handle.NewGenerator()
	backend := newFakeBackend("fake")

	t.Run("无后端", func(t *testing.T) {
		_, err := NewService(testConfig(), nil, gen)
		assert.ErrorIs(t, err, advertiseif.ErrNoBackends)
	})

	t.Run("无句柄生成器", func(t *testing.T) {
		_, err := NewService(testConfig(), []advertiseif.Announcer{backend}, nil)
		assert.Error(t, err)
	})

	t.Run("非法配置", func(t *testing.T) {
		cfg := testConfig()
		cfg.RedoInterval = 0
		_, err := NewService(cfg, []advertiseif.Announcer{backend}, gen)
		assert.Error(t, err)
	})
}

// ============================================================================
//                              注册语义测试
// ============================================================================

func TestAnnounceReturnsDistinctHandles(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	h1, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)
	h2, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	// 同一事实重复注册：句柄不同，存储中只有一条事实
	assert.NotEqual(t, h1, h2)
	stats := s.Stats()
	assert.Equal(t, 1, stats.Facts)
	assert.Equal(t, 2, stats.Handles)
}

func TestAnnounceEmptyKey(t *testing.T) {
	s := newTestService(t, newFakeBackend("fake"))

	_, err := s.Announce(context.Background(), "", "v")
	assert.ErrorIs(t, err, advertiseif.ErrEmptyKey)
	assert.Equal(t, 0, s.Stats().Facts)
}

func TestAnnounceImmediateDispatch(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	_, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	// 注册路径上至少有一次即时通告，不必等 worker
	assert.GreaterOrEqual(t, backend.factCount(advertiseif.Fact{Key: "svcA", Value: "1.2.3.4"}), 1)
}

func TestAnnounceFailingBackendDoesNotFailCaller(t *testing.T) {
	bad := newFakeBackend("bad")
	bad.failWith = func(string, string) error {
		return advertiseif.NewBackendError("bad", errors.New("unreachable"))
	}
	good := newFakeBackend("good")
	s := newTestService(t, bad, good)

	// 坏后端既不影响注册结果，也不阻断后续后端
	h, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, h.IsZero())
	assert.GreaterOrEqual(t, good.callCount(), 1)
}

func TestStopAnnounceScenario(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	h1, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)
	h2, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	// 撤销其中一个句柄：事实仍在通告
	s.StopAnnounce(h1)
	assert.Equal(t, 1, s.Stats().Facts)

	// 未知句柄是 no-op
	s.StopAnnounce("bogus")
	assert.Equal(t, 1, s.Stats().Facts)

	// 撤销最后一个句柄：事实离开存储
	s.StopAnnounce(h2)
	assert.Equal(t, 0, s.Stats().Facts)
}

// ============================================================================
//                              Worker 测试
// ============================================================================

func TestWorkerSweepsPeriodically(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	fact := advertiseif.Fact{Key: "svcA", Value: "1.2.3.4"}
	_, err := s.Announce(context.Background(), fact.Key, fact.Value)
	require.NoError(t, err)

	// 即时通告 1 次之外，worker 持续补充重通告
	require.Eventually(t, func() bool {
		return s.Stats().Sweeps >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, backend.factCount(fact), 3)
}

func TestWorkerSweepCoversAllFacts(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	facts := []advertiseif.Fact{
		{Key: "svcA", Value: "1.2.3.4"},
		{Key: "svcB", Value: "5.6.7.8"},
		{Key: "svcC", Value: ""},
	}
	for _, f := range facts {
		_, err := s.Announce(context.Background(), f.Key, f.Value)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return s.Stats().Sweeps >= 2
	}, 2*time.Second, 5*time.Millisecond)

	for _, f := range facts {
		assert.GreaterOrEqual(t, backend.factCount(f), 2, "fact %v", f)
	}
}

func TestWorkerExitsWhenStoreEmpty(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	h, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, s.Stats().WorkerActive)

	s.StopAnnounce(h)

	// 存储空后 worker 干净退出并释放运行守卫
	require.Eventually(t, func() bool {
		return !s.Stats().WorkerActive
	}, 2*time.Second, 5*time.Millisecond)

	// 再次注册会重新启动 worker
	_, err = s.Announce(context.Background(), "svcB", "5.6.7.8")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.WorkerActive && st.Sweeps > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerRecordsTransientErrors(t *testing.T) {
	backend := newFakeBackend("flaky")
	backend.failWith = func(string, string) error {
		return advertiseif.NewTimeoutError("flaky", errors.New("deadline exceeded"))
	}
	s := newTestService(t, backend)

	_, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	// 瞬时失败只进入诊断，worker 照常推进轮次
	require.Eventually(t, func() bool {
		return !s.LastError().IsZero() && s.Stats().Sweeps >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Stats().WorkerActive)
	assert.Contains(t, s.LastError().Message, "deadline exceeded")
}

func TestWorkerRestartsOnUnclassifiedError(t *testing.T) {
	var failures atomic.Int32
	backend := newFakeBackend("broken")
	backend.failWith = func(string, string) error {
		// 前两次通告返回未分类错误，之后恢复
		if failures.Add(1) <= 2 {
			return errors.New("internal corruption")
		}
		return nil
	}
	s := newTestService(t, backend)

	_, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	// 未分类错误中止本轮并记入诊断，监督任务停顿后原地重启；
	// 后端恢复后轮次继续推进
	require.Eventually(t, func() bool {
		return s.Stats().Sweeps >= 2
	}, 3*time.Second, 5*time.Millisecond)
	assert.Contains(t, s.LastError().Message, "internal corruption")
	assert.True(t, s.Stats().WorkerActive)
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	var calls atomic.Int32
	backend := newFakeBackend("panicky")
	backend.failWith = func(string, string) error {
		// 第 1 次调用是注册路径上的即时通告；让 worker 的首次
		// 通告（第 2 次调用）触发 panic
		if calls.Add(1) == 2 {
			panic("boom")
		}
		return nil
	}
	s := newTestService(t, backend)

	_, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Stats().Sweeps >= 1
	}, 3*time.Second, 5*time.Millisecond)
	assert.Contains(t, s.LastError().Message, "panic")
}

// ============================================================================
//                              限速与关闭
// ============================================================================

func TestDispatchRateLimit(t *testing.T) {
	backend := newFakeBackend("fake")

	cfg := testConfig()
	cfg.RedoInterval = time.Minute // 首轮之后不再重通告
	cfg.DispatchRate = 0.001
	cfg.DispatchBurst = 1
	s, err := NewService(cfg, []advertiseif.Announcer{backend}, handle.NewGenerator())
	require.NoError(t, err)
	defer s.Close()

	first := advertiseif.Fact{Key: "svcA", Value: "1"}
	second := advertiseif.Fact{Key: "svcB", Value: "2"}

	_, err = s.Announce(context.Background(), first.Key, first.Value)
	require.NoError(t, err)

	// worker 首轮只看得到 first；等它跑完再注册 second
	require.Eventually(t, func() bool {
		return s.Stats().Sweeps >= 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err = s.Announce(context.Background(), second.Key, second.Value)
	require.NoError(t, err)

	// 突发额度已被 first 耗尽：second 的即时通告被限速跳过，
	// 只能等 worker 的下一轮补上
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, backend.factCount(second))
	assert.GreaterOrEqual(t, backend.factCount(first), 1)
}

func TestServiceClose(t *testing.T) {
	backend := newFakeBackend("fake")
	s := newTestService(t, backend)

	_, err := s.Announce(context.Background(), "svcA", "1.2.3.4")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // 幂等

	backend.mu.Lock()
	closed := backend.closed
	backend.mu.Unlock()
	assert.True(t, closed)

	// 关闭后注册被拒绝
	_, err = s.Announce(context.Background(), "svcB", "5.6.7.8")
	assert.ErrorIs(t, err, advertiseif.ErrClosed)

	// 存储清空让 worker 自然退出
	require.Eventually(t, func() bool {
		return !s.Stats().WorkerActive
	}, 2*time.Second, 5*time.Millisecond)
}
