// Package main 提供 advertise 命令行入口
//
// 持续通告一条 (key, value) 事实直到收到中断信号。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	seattlelib "github.com/BuildSeash/seattlelib-v2"
	"github.com/BuildSeash/seattlelib-v2/internal/util/logger"
)

var log = logger.Logger("advertise.cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	key   = flag.String("key", "", "通告的键（必填）")
	value = flag.String("value", "", "通告的值")

	centralAddr = flag.String("central", "", "TCP 中心通告服务器地址 (host:port)")
	udpAddr     = flag.String("central-udp", "", "UDP 中心通告服务器地址 (host:port)")
	enableMDNS  = flag.Bool("mdns", false, "启用 mDNS 局域网通告")

	ttl  = flag.Duration("ttl", 240*time.Second, "通告有效期")
	redo = flag.Duration("redo", 120*time.Second, "重通告间隔")
)

func main() {
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "用法: advertise -key <key> [-value <value>] -central <addr> [-central-udp <addr>] [-mdns]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts := []seattlelib.Option{
		seattlelib.WithTTL(*ttl),
		seattlelib.WithRedoInterval(*redo),
	}
	if *centralAddr != "" {
		opts = append(opts, seattlelib.WithCentralServer(*centralAddr))
	}
	if *udpAddr != "" {
		opts = append(opts, seattlelib.WithUDPCentralServer(*udpAddr))
	}
	if *enableMDNS {
		opts = append(opts, seattlelib.WithMDNS())
	}

	pipe, err := seattlelib.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建通告管道失败: %v\n", err)
		os.Exit(1)
	}
	defer pipe.Close()

	h, err := pipe.Announce(context.Background(), *key, *value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "注册失败: %v\n", err)
		os.Exit(1)
	}

	log.Info("fact registered",
		"key", *key,
		"handle", h.ShortString(),
		"ttl", *ttl,
		"redo", *redo)
	fmt.Printf("正在通告 %q -> %q（Ctrl+C 退出）\n", *key, *value)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	pipe.StopAnnounce(h)
	if rec := pipe.LastError(); !rec.IsZero() {
		fmt.Printf("最近一次通告失败: %s (%s)\n", rec.Message, rec.Time.Format(time.RFC3339))
	}
	fmt.Println("已停止通告")
}
