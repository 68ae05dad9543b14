package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/88lin/xianyu-super-butler/internal/app/config"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rprule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svfulfill"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svreply"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svsync"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/ai"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/cardsource"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/marketplace"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/mq/lmstfy"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/notify"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/redis"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/account"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/card"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/message"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/order"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/rule"
	"github.com/88lin/xianyu-super-butler/internal/app/server/handlers/setting"
	"github.com/88lin/xianyu-super-butler/internal/app/server/routers"
)

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

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

	// 4. 初始化 Repository 层
	orderRepo := rporder.NewOrderRepository(db)
	cardRepo := rpcard.NewCardRepository(db)
	ruleRepo := rprule.NewRuleRepository(db)
	settingRepo := rpsetting.NewSettingRepository(db)
	accountRepo := rpaccount.NewAccountRepository(db)

	// 5. 初始化 Module 层
	cardModule := mdcard.NewCardModule(cardRepo, cardsource.NewHTTPFetcher(0))
	ruleModule := mdrule.NewRuleModule(ruleRepo, cardRepo)
	ruleModule.EnableChangeBroadcast(redisClient, appLogger)
	orderModule := mdorder.NewOrderModule(orderRepo, accountRepo)

	// 6. 初始化 Service 层
	notifier := notify.NewEmailNotifier(settingRepo, appLogger)
	fulfillService := svfulfill.NewFulfillService(
		orderRepo, ruleModule, cardModule,
		bridgeClient, notifier, redisClient,
		appLogger, cfg.Fulfill,
	)
	syncService := svsync.NewSyncService(bridgeClient, orderRepo, accountRepo, lmstfyClient, appLogger)
	replyService := svreply.NewReplyService(ruleModule, settingRepo, ai.NewChatClient(settingRepo, 0), appLogger)

	// 7. 初始化 Handler 并装配路由
	engine := routers.SetupRoutes(
		appLogger,
		order.NewOrderHandler(orderModule, fulfillService, syncService, redisClient),
		rule.NewRuleHandler(ruleModule),
		card.NewCardHandler(cardModule),
		message.NewMessageHandler(replyService),
		setting.NewSettingHandler(settingRepo),
		account.NewAccountHandler(accountRepo),
	)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	// 8. 启动 HTTP Server（后台 goroutine）
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 9. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("Received shutdown signal, gracefully shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		} else {
			log.Println("HTTP server stopped gracefully")
		}
	case err := <-serverErrChan:
		log.Fatalf("HTTP server error: %v", err)
	}

	log.Println("Application stopped")
}
