package seattlelib

import (
	"context"

	"go.uber.org/fx"
)

// Module 返回把通告管道装进 fx 应用的选项
//
// 管道在构造期创建，随应用停止而关闭：
//
//	app := fx.New(
//	    seattlelib.Module(
//	        seattlelib.WithCentralServer("advertise.example.org:10102"),
//	    ),
//	    fx.Invoke(func(pipe *seattlelib.AdvertisePipe) {
//	        // ...
//	    }),
//	)
func Module(opts ...Option) fx.Option {
	return fx.Provide(func(lc fx.Lifecycle) (*AdvertisePipe, error) {
		pipe, err := New(opts...)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return pipe.Close()
			},
		})
		return pipe, nil
	})
}
