package advertise

import (
	"sync"

	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
	"github.com/BuildSeash/seattlelib-v2/pkg/types"
)

// ============================================================================
//                              事实存储
// ============================================================================

// Store 去重的事实存储
//
// 内部表示为单层映射 (key, value) -> 句柄集合；对外语义仍是
// key -> value -> 句柄集合的两层结构。不变式：
//   - 不存在空的句柄集合（最后一个句柄移除时整条事实被剪除）
//   - 同一句柄在一条事实下至多出现一次
//
// Store 是"哪些事实必须保持通告"的唯一事实来源。Sweep 在持锁
// 状态下遍历，保证一轮重通告看到的是一致的快照。
type Store struct {
	mu    sync.Mutex
	facts map[advertiseif.Fact]map[types.Handle]struct{}
}

// NewStore 创建事实存储
func NewStore() *Store {
	return &Store{
		facts: make(map[advertiseif.Fact]map[types.Handle]struct{}),
	}
}

// Add 在一条事实下登记句柄（insert-or-get）
//
// 首次出现的 (key, value) 会创建事实条目；重复的 (key, value)
// 只是在已有条目下追加句柄，不会产生重复的通告流量。
func (s *Store) Add(fact advertiseif.Fact, h types.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.facts[fact]
	if !ok {
		set = make(map[types.Handle]struct{})
		s.facts[fact] = set
	}
	set[h] = struct{}{}
}

// Remove 从所有事实中移除句柄并剪除空条目（remove-and-prune）
//
// 未知或已移除的句柄是 no-op。返回是否有任何条目被修改。
func (s *Store) Remove(h types.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for fact, set := range s.facts {
		if _, ok := set[h]; !ok {
			continue
		}
		delete(set, h)
		removed = true
		if len(set) == 0 {
			delete(s.facts, fact)
		}
	}
	return removed
}

// Empty 检查存储是否为空
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts) == 0
}

// Contains 检查一条事实是否仍被至少一个句柄引用
func (s *Store) Contains(fact advertiseif.Fact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.facts[fact]
	return ok
}

// HandleCount 返回一条事实下的句柄数
func (s *Store) HandleCount(fact advertiseif.Fact) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts[fact])
}

// Len 返回当前事实数与句柄总数
func (s *Store) Len() (facts, handles int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range s.facts {
		handles += len(set)
	}
	return len(s.facts), handles
}

// Facts 返回当前所有事实的快照
func (s *Store) Facts() []advertiseif.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]advertiseif.Fact, 0, len(s.facts))
	for fact := range s.facts {
		result = append(result, fact)
	}
	return result
}

// Sweep 持锁遍历所有事实
//
// fn 返回非 nil 错误时遍历中止并返回该错误。整个遍历期间持有
// 存储锁：并发的 Add/Remove 会排在一轮之后，换取一轮内部不被
// 注册操作交错的一致视图。
func (s *Store) Sweep(fn func(advertiseif.Fact) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for fact := range s.facts {
		if err := fn(fact); err != nil {
			return err
		}
	}
	return nil
}

// Clear 清空存储
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = make(map[advertiseif.Fact]map[types.Handle]struct{})
}
