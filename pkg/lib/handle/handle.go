// Package handle 提供默认的句柄生成器实现
//
// 基于 UUIDv4 生成全局唯一句柄。句柄对系统是不透明的，
// 这里选择 UUID 只是因为它免协调且足够唯一。
package handle

import (
	"github.com/google/uuid"

	"github.com/BuildSeash/seattlelib-v2/pkg/types"
)

// Generator UUID 句柄生成器
type Generator struct{}

// NewGenerator 创建句柄生成器
func NewGenerator() *Generator {
	return &Generator{}
}

// NewHandle 生成一个新的唯一句柄
func (g *Generator) NewHandle() types.Handle {
	return types.Handle(uuid.NewString())
}
