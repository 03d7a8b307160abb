// Package seattlelib 提供 Seattle 测试床基础库的 Go 实现
//
// 当前版本包含 advertise 子系统：把 (key, value) 事实持续发布到
// 一个或多个查找服务的合并通告管道。
//
// # 核心概念
//
//   - Fact: 一条被通告的 (key, value) 事实
//   - Handle: 一次注册的不透明句柄，用于之后撤销
//   - Backend: 具体的查找服务协议（central/centraludp/mdns）
//
// 无论多少调用方注册了多少条事实，重通告工作始终由单个受监督的
// 后台 worker 承担；worker 在存储清空后自行退出，出错时被自动
// 重启。通告失败从不上抛给调用方，只进入 LastError 诊断。
//
// # 快速开始
//
//	pipe, err := seattlelib.New(
//	    seattlelib.WithCentralServer("advertise.example.org:10102"),
//	    seattlelib.WithMDNS(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipe.Close()
//
//	h, err := pipe.Announce(ctx, "svcA", "1.2.3.4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// 不再需要时撤销注册；记录随 TTL 自然老化
//	pipe.StopAnnounce(h)
//
// # 日志
//
// 通过 SEATTLE_LOG_LEVEL 环境变量按子系统调整日志级别，例如
// SEATTLE_LOG_LEVEL=advertise=debug,info。
package seattlelib
