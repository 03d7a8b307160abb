package types

// ============================================================================
//                              Handle - 注册句柄
// ============================================================================

// Handle 一次通告注册的不透明句柄
//
// 由句柄生成器保证全局唯一，调用方持有它用于之后撤销对应的注册。
// 系统本身从不解释句柄的内容。
type Handle string

// String 返回句柄的字符串表示
func (h Handle) String() string {
	return string(h)
}

// IsZero 检查句柄是否为空
func (h Handle) IsZero() bool {
	return h == ""
}

// ShortString 返回句柄前缀（用于日志）
func (h Handle) ShortString() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}
