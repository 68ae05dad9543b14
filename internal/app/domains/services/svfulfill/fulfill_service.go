package svfulfill

import (
	"context"
	"fmt"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/config"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdmatch"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/keymutex"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
)

// Dispatcher 交付出口：把卡密内容发给买家（闲鱼消息通道）
type Dispatcher interface {
	Deliver(ctx context.Context, order *etorder.Order, payload string) error
}

// Notifier 运营告警出口（发货失败需要人工介入时触发）
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// EventPublisher 发货结果广播（控制台实时刷新）
type EventPublisher interface {
	PublishFulfillResult(ctx context.Context, orderID string, success bool, detail string) error
}

// 人工发货单条结果
const (
	OutcomeShipped = "shipped" // 本次发货成功
	OutcomeSkipped = "skipped" // 状态不满足，按无操作处理
	OutcomeFailed  = "failed"  // 发货失败，原因见 Reason
)

// ShipResult 人工批量发货的单条结果
type ShipResult struct {
	OrderID string
	Outcome string
	Reason  string
}

// FulfillService 发货编排器
// 订单的全部状态迁移都从这里发起；同一订单的处理串行化，
// 分配失败走有界指数退避，穷尽后停在 pending_ship 等人工
type FulfillService struct {
	orderRepo  rporder.OrderRepository
	rules      *mdrule.RuleModule
	cards      *mdcard.CardModule
	dispatcher Dispatcher
	notifier   Notifier
	publisher  EventPublisher
	log        logger.Logger
	cfg        config.FulfillConfig

	locks *keymutex.KeyMutex[string] // orderID -> 订单级互斥锁
}

// NewFulfillService 创建发货编排器
func NewFulfillService(
	orderRepo rporder.OrderRepository,
	rules *mdrule.RuleModule,
	cards *mdcard.CardModule,
	dispatcher Dispatcher,
	notifier Notifier,
	publisher EventPublisher,
	log logger.Logger,
	cfg config.FulfillConfig,
) *FulfillService {
	return &FulfillService{
		orderRepo:  orderRepo,
		rules:      rules,
		cards:      cards,
		dispatcher: dispatcher,
		notifier:   notifier,
		publisher:  publisher,
		log:        log,
		cfg:        cfg,
		locks:      keymutex.New[string](),
	}
}

// OnOrderObserved 自动发货入口：新订单入库后由队列任务触发
// 规则未命中订单停留 processing；命中后先落 pending_ship 再进入分配
// 业务性失败在内部收敛（落库+告警），只有基础设施错误向上返回交给队列重试
func (s *FulfillService) OnOrderObserved(ctx context.Context, orderID string) error {
	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	ctx = context.WithValue(ctx, logger.KeyOrderID, orderID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.EligibleForAutoFulfill() {
		s.log.Infof(ctx, "order in status %s, auto fulfill skipped", order.Status)
		return nil
	}

	snap, err := s.rules.Snapshot(ctx, order.AccountID)
	if err != nil {
		return err
	}
	rule := mdmatch.MatchShipping(order.ItemTitle, snap.Shipping)
	if rule == nil {
		s.log.Infof(ctx, "no shipping rule matched for title %q, order stays processing", order.ItemTitle)
		return nil
	}

	s.log.Infof(ctx, "shipping rule %d matched (group %d, snapshot v%d)", rule.ID, rule.CardGroupID, snap.Version)
	if err := order.MarkPendingShip(rule.CardGroupID); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}

	return s.fulfill(ctx, order)
}

// StrategyAutoMatch 人工发货策略：沿用已绑定卡密组，缺失时重新匹配规则
const StrategyAutoMatch = "auto_match"

// ManualShip 控制台批量人工发货
// 逐单处理，单个失败不影响其余；非 pending_ship 订单按无操作跳过
func (s *FulfillService) ManualShip(ctx context.Context, orderIDs []string, strategy string) ([]ShipResult, error) {
	if strategy == "" {
		strategy = StrategyAutoMatch
	}
	if strategy != StrategyAutoMatch {
		return nil, errorx.NewValidation("strategy", fmt.Sprintf("unsupported ship strategy: %s", strategy))
	}

	results := make([]ShipResult, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		results = append(results, s.manualShipOne(ctx, orderID))
	}
	return results, nil
}

func (s *FulfillService) manualShipOne(ctx context.Context, orderID string) ShipResult {
	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	ctx = context.WithValue(ctx, logger.KeyOrderID, orderID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: err.Error()}
	}
	if !order.EligibleForManualShip() {
		s.log.Infof(ctx, "order in status %s, manual ship is a no-op", order.Status)
		return ShipResult{OrderID: orderID, Outcome: OutcomeSkipped, Reason: fmt.Sprintf("status is %s", order.Status)}
	}

	// pending_ship 订单正常已绑定卡密组；组引用丢失时重新走一次规则匹配
	if order.CardGroupID == nil {
		snap, err := s.rules.Snapshot(ctx, order.AccountID)
		if err != nil {
			return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: err.Error()}
		}
		rule := mdmatch.MatchShipping(order.ItemTitle, snap.Shipping)
		if rule == nil {
			return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: "no shipping rule matched"}
		}
		if err := order.MarkPendingShip(rule.CardGroupID); err != nil {
			return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: err.Error()}
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: err.Error()}
		}
	}

	if err := s.fulfill(ctx, order); err != nil {
		return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: err.Error()}
	}
	if order.Status != etorder.StatusShipped || order.FailureReason != "" {
		return ShipResult{OrderID: orderID, Outcome: OutcomeFailed, Reason: order.FailureReason}
	}
	return ShipResult{OrderID: orderID, Outcome: OutcomeShipped}
}

// OnMarketplaceEvent 应用市场侧状态事件（买家取消/售后/确认收货）
func (s *FulfillService) OnMarketplaceEvent(ctx context.Context, orderID string, status etorder.OrderStatus) error {
	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	ctx = context.WithValue(ctx, logger.KeyOrderID, orderID)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	switch status {
	case etorder.StatusCompleted:
		if err := order.MarkCompleted(); err != nil {
			return err
		}
	case etorder.StatusCancelled, etorder.StatusRefunding:
		if err := order.ApplyMarketplaceStatus(status); err != nil {
			return err
		}
	default:
		return errorx.NewValidation("status", fmt.Sprintf("unsupported marketplace event: %s", status))
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	s.log.Infof(ctx, "marketplace event applied, order now %s", order.Status)
	return nil
}

// fulfill 待发货订单的分配与交付
// 前置条件：调用方已持有订单锁，订单处于 pending_ship 且已绑定卡密组
// 业务性失败（库存不足/外部失败穷尽/停用组）在这里落库并告警，返回 nil
func (s *FulfillService) fulfill(ctx context.Context, order *etorder.Order) error {
	groupID := *order.CardGroupID

	record, err := s.allocateWithRetry(ctx, groupID, order.ID)
	if err != nil {
		return s.recordFailure(ctx, order, fmt.Sprintf("card allocation failed: %v", err))
	}

	// 分配记录已落库，此刻起卡密归属不可逆转；交付失败也不回收
	if err := order.MarkShipped(); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}

	if err := s.deliverWithRetry(ctx, order, record.Payload); err != nil {
		s.log.Errorf(ctx, "delivery failed after allocation committed: %v", err)
		order.RecordFailure(fmt.Sprintf("delivery failed: %v", err))
		if updateErr := s.orderRepo.Update(ctx, order); updateErr != nil {
			return updateErr
		}
		s.notify(ctx, order, order.FailureReason)
		s.publish(ctx, order.ID, false, order.FailureReason)
		return nil
	}

	s.log.Infof(ctx, "order fulfilled with card group %d", groupID)
	s.publish(ctx, order.ID, true, "")
	return nil
}

// allocateWithRetry 有界指数退避的卡密分配
// 库存不足与外部调用失败重试，停用组与校验错误立即放弃
func (s *FulfillService) allocateWithRetry(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error) {
	for attempt := 1; ; attempt++ {
		record, err := s.cards.Allocate(ctx, groupID, orderID)
		if err == nil {
			return record, nil
		}

		if !errorx.IsRetryable(err) {
			return nil, err
		}
		if attempt >= s.maxAttempts() {
			return nil, fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		s.log.Warnf(ctx, "allocation attempt %d failed: %v, backing off", attempt, err)
		if waitErr := s.backoff(ctx, attempt); waitErr != nil {
			return nil, waitErr
		}
	}
}

// deliverWithRetry 有界指数退避的内容交付
func (s *FulfillService) deliverWithRetry(ctx context.Context, order *etorder.Order, payload string) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = s.dispatcher.Deliver(ctx, order, payload)
		if err == nil {
			return nil
		}
		if attempt >= s.maxAttempts() {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		s.log.Warnf(ctx, "delivery attempt %d failed: %v, backing off", attempt, err)
		if waitErr := s.backoff(ctx, attempt); waitErr != nil {
			return waitErr
		}
	}
}

// recordFailure 分配失败收敛：订单停在 pending_ship、记录原因、告警、广播
func (s *FulfillService) recordFailure(ctx context.Context, order *etorder.Order, reason string) error {
	s.log.Errorf(ctx, "fulfill failed: %s", reason)
	order.RecordFailure(reason)
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	s.notify(ctx, order, reason)
	s.publish(ctx, order.ID, false, reason)
	return nil
}

// notify 运营告警，尽力而为
func (s *FulfillService) notify(ctx context.Context, order *etorder.Order, reason string) {
	if s.notifier == nil {
		return
	}
	subject := fmt.Sprintf("订单发货失败: %s", order.MarketplaceOrderNo)
	body := fmt.Sprintf("订单 %s（%s）发货失败：%s，请人工处理。", order.ID, order.ItemTitle, reason)
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.log.Warnf(ctx, "operator notification failed: %v", err)
	}
}

// publish 发货结果广播，尽力而为
func (s *FulfillService) publish(ctx context.Context, orderID string, success bool, detail string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFulfillResult(ctx, orderID, success, detail); err != nil {
		s.log.Warnf(ctx, "publish fulfill result failed: %v", err)
	}
}

// backoff 指数退避等待：base * 2^(attempt-1)，封顶 max，可被 ctx 取消
func (s *FulfillService) backoff(ctx context.Context, attempt int) error {
	delay := s.cfg.BaseBackoff
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if s.cfg.MaxBackoff > 0 && delay >= s.cfg.MaxBackoff {
			delay = s.cfg.MaxBackoff
			break
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (s *FulfillService) maxAttempts() int {
	if s.cfg.MaxAttempts <= 0 {
		return 3
	}
	return s.cfg.MaxAttempts
}
