package seattlelib

import (
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// 公共错误定义
var (
	// ErrClosed 管道已关闭
	ErrClosed = advertiseif.ErrClosed

	// ErrEmptyKey 键为空
	ErrEmptyKey = advertiseif.ErrEmptyKey

	// ErrNoBackends 未配置任何通告后端
	ErrNoBackends = advertiseif.ErrNoBackends
)
