package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ratecard-converter/internal/config"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/server"
	"ratecard-converter/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("RCC_CONFIG"), "配置文件路径 (YAML)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.App.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := service.OpenBackends(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}
	defer backends.Close()

	svc, err := service.FromConfig(ctx, cfg, backends)
	if err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}

	fmt.Printf("🚀 %s\n", cfg.App.Name)
	fmt.Printf("📡 服务地址: http://%s%s\n", cfg.Server.Addr(), cfg.App.APIPrefix)
	fmt.Printf("🤖 LLM 映射: %v\n\n", svc.UsesLLMMapping())

	if err := server.New(cfg, svc).ListenAndServe(ctx); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
