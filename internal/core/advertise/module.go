package advertise

import (
	"context"

	"go.uber.org/fx"

	"github.com/BuildSeash/seattlelib-v2/pkg/lib/handle"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选，缺省使用 DefaultConfig）
	Config *advertiseif.Config `optional:"true"`

	// Backends 通告后端（按注册顺序构成固定优先级）
	Backends []advertiseif.Announcer `group:"announce_backends"`

	// Handles 句柄生成器（可选，缺省使用 UUID 生成器）
	Handles advertiseif.HandleGenerator `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Service 通告管道服务
	Service *Service
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	config := advertiseif.DefaultConfig()
	if input.Config != nil {
		config = *input.Config
	}

	handles := input.Handles
	if handles == nil {
		handles = handle.NewGenerator()
	}

	service, err := NewService(config, input.Backends, handles)
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{Service: service}, nil
}

// registerLifecycle 挂接 fx 生命周期
func registerLifecycle(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return service.Close()
		},
	})
}

// Module 返回通告模块的 fx 选项
func Module() fx.Option {
	return fx.Options(
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}
