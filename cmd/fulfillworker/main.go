package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/88lin/xianyu-super-butler/internal/app/config"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rprule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svfulfill"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/cardsource"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/marketplace"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/mq/lmstfy"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/notify"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/redis"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/jobs"
	"github.com/88lin/xianyu-super-butler/internal/worker"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  Fulfill Worker Starting...")
	log.Println("========================================")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	// 2. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// 3. 初始化基础设施组件
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := redis.NewPubSubClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}
	defer redisClient.Close()

	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token, cfg.Lmstfy.FulfillQueue)
	if err != nil {
		log.Fatalf("Failed to init lmstfy: %v", err)
	}

	bridgeClient := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Token, cfg.Marketplace.Timeout)

	// 4. 装配发货编排器
	orderRepo := rporder.NewOrderRepository(db)
	cardRepo := rpcard.NewCardRepository(db)
	ruleRepo := rprule.NewRuleRepository(db)
	settingRepo := rpsetting.NewSettingRepository(db)

	cardModule := mdcard.NewCardModule(cardRepo, cardsource.NewHTTPFetcher(0))
	ruleModule := mdrule.NewRuleModule(ruleRepo, cardRepo)

	// 订阅 apiserver 的规则变更广播，即时失效本进程的快照缓存
	subCtx, cancelSub := context.WithCancel(context.Background())
	defer cancelSub()
	go func() {
		if err := redisClient.SubscribeRuleChanges(subCtx, ruleModule.Invalidate); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Errorf(subCtx, "[main] rule change subscription stopped: %v", err)
		}
	}()

	fulfillService := svfulfill.NewFulfillService(
		orderRepo, ruleModule, cardModule,
		bridgeClient, notify.NewEmailNotifier(settingRepo, zapLogger), redisClient,
		zapLogger, cfg.Fulfill,
	)

	// 5. 创建 Manager
	mgr, err := worker.NewManagerInstance(cfg, lmstfyClient, jobs.NewHandlerMap(fulfillService), zapLogger)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 6. 启动 Manager（goroutine）
	go func() {
		if err := mgr.Start(); err != nil {
			log.Fatalf("Manager start failed: %v", err)
		}
	}()

	log.Println("Worker started. Press Ctrl+C to shutdown.")

	// 7. 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Println("========================================")
	log.Printf("  Received signal: %v\n", sig)
	log.Println("  Shutting down Worker...")
	log.Println("========================================")

	// 8. 优雅关闭 Manager
	mgr.Shutdown()

	fmt.Println("========================================")
	fmt.Println("  Worker exited gracefully")
	fmt.Println("========================================")
}
