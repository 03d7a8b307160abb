package advertise

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrClosed 管道已关闭
	ErrClosed = errors.New("advertise pipe closed")

	// ErrEmptyKey 键为空
	ErrEmptyKey = errors.New("advertise key is empty")

	// ErrNoBackends 未配置任何通告后端
	ErrNoBackends = errors.New("no announce backends configured")
)

// ErrorKind 通告失败的分类
type ErrorKind int

const (
	// KindUnclassified 未分类失败
	//
	// 未分类失败会中止当前一轮重通告并上抛给监督者重启 worker。
	KindUnclassified ErrorKind = iota

	// KindTimeout 超时类失败（拨号超时、读写超时）
	KindTimeout

	// KindBackend 查找服务报告的通告失败（协议级错误、连接被拒）
	KindBackend
)

// String 返回分类的字符串表示
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindBackend:
		return "backend"
	default:
		return "unclassified"
	}
}

// AnnounceError 带分类的通告失败
//
// 后端通过返回 AnnounceError 报告失败，而不是 panic；
// worker 依据 Kind 决定是继续本轮还是中止上抛。
type AnnounceError struct {
	// Kind 失败分类
	Kind ErrorKind

	// Backend 报告失败的后端名称
	Backend string

	// Err 底层错误
	Err error
}

// Error 实现 error 接口
func (e *AnnounceError) Error() string {
	return fmt.Sprintf("announce via %s: %s: %v", e.Backend, e.Kind, e.Err)
}

// Unwrap 返回底层错误
func (e *AnnounceError) Unwrap() error {
	return e.Err
}

// Transient 检查该失败是否为瞬时失败
//
// 瞬时失败只记入诊断并在短暂停顿后继续本轮，不会中止 worker。
func (e *AnnounceError) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindBackend
}

// NewTimeoutError 构造超时类失败
func NewTimeoutError(backend string, err error) *AnnounceError {
	return &AnnounceError{Kind: KindTimeout, Backend: backend, Err: err}
}

// NewBackendError 构造查找服务报告的失败
func NewBackendError(backend string, err error) *AnnounceError {
	return &AnnounceError{Kind: KindBackend, Backend: backend, Err: err}
}

// IsTransient 检查任意错误是否为瞬时通告失败
func IsTransient(err error) bool {
	var ae *AnnounceError
	return errors.As(err, &ae) && ae.Transient()
}
