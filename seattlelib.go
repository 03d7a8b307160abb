package seattlelib

import (
	"context"

	"github.com/BuildSeash/seattlelib-v2/internal/core/advertise"
	advertiseif "github.com/BuildSeash/seattlelib-v2/pkg/interfaces/advertise"
	"github.com/BuildSeash/seattlelib-v2/pkg/types"
)

// ============================================================================
//                              AdvertisePipe - 通告管道
// ============================================================================

// AdvertisePipe 合并通告管道
//
// 用户交互的主入口。一个进程可以持有多个互不干扰的管道实例，
// 每个实例有自己的事实存储、后端集合和后台 worker。
type AdvertisePipe struct {
	service *advertise.Service
}

// New 创建通告管道
//
// 后端按固定优先级顺序装配：central → centraludp → mdns → 自定义。
// 至少要配置一个后端。
func New(opts ...Option) (*AdvertisePipe, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	backends, err := o.buildBackends()
	if err != nil {
		return nil, err
	}

	service, err := advertise.NewService(o.config, backends, o.handles)
	if err != nil {
		for _, b := range backends {
			_ = b.Close()
		}
		return nil, err
	}

	return &AdvertisePipe{service: service}, nil
}

// Announce 注册一条事实并返回其句柄
//
// 同一 (key, value) 的每次调用都返回一个新句柄；事实本身在存储中
// 只出现一次。通告失败不会让本方法失败。
func (p *AdvertisePipe) Announce(ctx context.Context, key, value string) (types.Handle, error) {
	return p.service.Announce(ctx, key, value)
}

// StopAnnounce 撤销一次注册
//
// 每个句柄调用一次即可；对未知句柄调用是安全的 no-op。
func (p *AdvertisePipe) StopAnnounce(h types.Handle) {
	p.service.StopAnnounce(h)
}

// LastError 返回后台 worker 观测到的最近一次失败
func (p *AdvertisePipe) LastError() advertiseif.ErrorRecord {
	return p.service.LastError()
}

// Stats 返回管道统计
func (p *AdvertisePipe) Stats() advertiseif.Stats {
	return p.service.Stats()
}

// Close 关闭管道并释放后端资源（幂等）
func (p *AdvertisePipe) Close() error {
	return p.service.Close()
}
