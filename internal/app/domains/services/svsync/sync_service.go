package svsync

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
)

// 账号并发抓取上限
const maxConcurrentAccounts = 4

// MarketplaceOrder 市场侧拉取到的原始订单
type MarketplaceOrder struct {
	OrderNo   string
	BuyerID   string
	ItemID    string
	ItemTitle string
	ItemImage string
	Amount    int64 // 实付金额，单位分
	Quantity  int
}

// OrderSource 市场侧订单来源（闲鱼开放接口适配层实现）
type OrderSource interface {
	// FetchNewOrders 拉取账号下新付款订单
	FetchNewOrders(ctx context.Context, accountID int64) ([]*MarketplaceOrder, error)

	// FetchLatestItemTitle 按商品ID取最新标题（拉单缺标题时补齐）
	FetchLatestItemTitle(ctx context.Context, itemID string) (string, error)
}

// JobEnqueuer 发货任务入队出口（lmstfy 实现）
type JobEnqueuer interface {
	EnqueueFulfill(ctx context.Context, orderID string) error
}

// SyncResult 一次同步的汇总结果
type SyncResult struct {
	Accounts int // 参与同步的账号数
	Fetched  int // 拉取到的订单总数
	Created  int // 新建订单数
	Skipped  int // 去重跳过数
}

// SyncService 订单同步服务
// 并发遍历启用账号拉单，按 (account_id, marketplace_order_no) 去重，
// 新订单以 processing 落库并入队发货任务
type SyncService struct {
	source      OrderSource
	orderRepo   rporder.OrderRepository
	accountRepo rpaccount.AccountRepository
	enqueuer    JobEnqueuer
	log         logger.Logger
}

// NewSyncService 创建订单同步服务
func NewSyncService(
	source OrderSource,
	orderRepo rporder.OrderRepository,
	accountRepo rpaccount.AccountRepository,
	enqueuer JobEnqueuer,
	log logger.Logger,
) *SyncService {
	return &SyncService{
		source:      source,
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		enqueuer:    enqueuer,
		log:         log,
	}
}

// SyncOrders 全量同步一轮：每个启用账号拉一次新订单
// 单账号拉取失败中断整轮并返回错误；单订单入队失败只记日志不回滚落库
func (s *SyncService) SyncOrders(ctx context.Context) (*SyncResult, error) {
	accounts, err := s.accountRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Accounts: len(accounts)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAccounts)
	for _, account := range accounts {
		accountID := account.ID
		g.Go(func() error {
			fetched, created, skipped, err := s.syncAccount(gctx, accountID)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Fetched += fetched
			result.Created += created
			result.Skipped += skipped
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Infof(ctx, "order sync done: %d accounts, %d fetched, %d created, %d skipped",
		result.Accounts, result.Fetched, result.Created, result.Skipped)
	return result, nil
}

// syncAccount 同步单个账号
func (s *SyncService) syncAccount(ctx context.Context, accountID int64) (fetched, created, skipped int, err error) {
	raws, err := s.source.FetchNewOrders(ctx, accountID)
	if err != nil {
		return 0, 0, 0, err
	}

	for _, raw := range raws {
		fetched++
		existing, err := s.orderRepo.GetByMarketplaceNo(ctx, accountID, raw.OrderNo)
		if err != nil {
			return fetched, created, skipped, err
		}
		if existing != nil {
			skipped++
			continue
		}

		title := raw.ItemTitle
		if title == "" && raw.ItemID != "" {
			if latest, err := s.source.FetchLatestItemTitle(ctx, raw.ItemID); err != nil {
				s.log.Warnf(ctx, "fetch item title for %s failed: %v", raw.ItemID, err)
			} else {
				title = latest
			}
		}

		order, err := etorder.NewOrder(uuid.NewString(), accountID, raw.OrderNo, raw.BuyerID, raw.ItemID, title)
		if err != nil {
			return fetched, created, skipped, err
		}
		order.ItemImage = raw.ItemImage
		order.Amount = raw.Amount
		if raw.Quantity > 0 {
			order.Quantity = raw.Quantity
		}

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return fetched, created, skipped, err
		}
		created++

		if err := s.enqueuer.EnqueueFulfill(ctx, order.ID); err != nil {
			// 落库已完成，入队失败由下一轮同步或人工发货兜底
			s.log.Errorf(ctx, "enqueue fulfill job for order %s failed: %v", order.ID, err)
		}
	}
	return fetched, created, skipped, nil
}
