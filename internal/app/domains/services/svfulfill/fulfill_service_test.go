package svfulfill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/config"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/app/testsupport/memrepo"
)

// fakeDispatcher 记录交付调用，可注入前 N 次失败
type fakeDispatcher struct {
	mu       sync.Mutex
	failures int
	calls    []string // 交付内容序列
}

func (f *fakeDispatcher) Deliver(ctx context.Context, order *etorder.Order, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("im channel unavailable")
	}
	f.calls = append(f.calls, payload)
	return nil
}

func (f *fakeDispatcher) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeNotifier) Notify(ctx context.Context, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subjects)
}

type publishedResult struct {
	OrderID string
	Success bool
	Detail  string
}

type fakePublisher struct {
	mu      sync.Mutex
	results []publishedResult
}

func (f *fakePublisher) PublishFulfillResult(ctx context.Context, orderID string, success bool, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, publishedResult{OrderID: orderID, Success: success, Detail: detail})
	return nil
}

func (f *fakePublisher) last() (publishedResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return publishedResult{}, false
	}
	return f.results[len(f.results)-1], true
}

type fixture struct {
	service    *FulfillService
	orderRepo  *memrepo.OrderRepo
	cardRepo   *memrepo.CardRepo
	ruleRepo   *memrepo.RuleRepo
	rules      *mdrule.RuleModule
	cards      *mdcard.CardModule
	dispatcher *fakeDispatcher
	notifier   *fakeNotifier
	publisher  *fakePublisher
}

func newFixture() *fixture {
	orderRepo := memrepo.NewOrderRepo()
	cardRepo := memrepo.NewCardRepo()
	ruleRepo := memrepo.NewRuleRepo()

	rules := mdrule.NewRuleModule(ruleRepo, cardRepo)
	cards := mdcard.NewCardModule(cardRepo, nil)
	dispatcher := &fakeDispatcher{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}

	cfg := config.FulfillConfig{
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
	service := NewFulfillService(orderRepo, rules, cards, dispatcher, notifier, publisher, logger.NewNop(), cfg)
	return &fixture{
		service:    service,
		orderRepo:  orderRepo,
		cardRepo:   cardRepo,
		ruleRepo:   ruleRepo,
		rules:      rules,
		cards:      cards,
		dispatcher: dispatcher,
		notifier:   notifier,
		publisher:  publisher,
	}
}

func (f *fixture) seedDataGroup(t *testing.T, payloads ...string) int64 {
	t.Helper()
	group := &etcard.CardGroup{AccountID: 1, Name: "卡密序列", Kind: etcard.KindData, Enabled: true}
	require.NoError(t, f.cardRepo.CreateGroup(context.Background(), group))
	if len(payloads) > 0 {
		_, err := f.cardRepo.AddInstances(context.Background(), group.ID, payloads)
		require.NoError(t, err)
	}
	return group.ID
}

func (f *fixture) seedShippingRule(t *testing.T, keyword string, groupID int64) {
	t.Helper()
	_, err := f.rules.UpsertShipping(context.Background(), &etrule.ShippingRule{
		AccountID:   1,
		Name:        keyword,
		Priority:    10,
		ItemKeyword: keyword,
		CardGroupID: groupID,
		Enabled:     true,
	})
	require.NoError(t, err)
}

func (f *fixture) seedOrder(t *testing.T, id, title string) *etorder.Order {
	t.Helper()
	order, err := etorder.NewOrder(id, 1, "mp-"+id, "buyer-1", "item-1", title)
	require.NoError(t, err)
	require.NoError(t, f.orderRepo.Create(context.Background(), order))
	return order
}

func TestOnOrderObserved_HappyPath(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t, "CARD-A", "CARD-B")
	f.seedShippingRule(t, "视频会员", groupID)
	f.seedOrder(t, "order-1", "视频会员月卡 自动发货")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusShipped, order.Status)
	require.NotNil(t, order.CardGroupID)
	assert.Equal(t, groupID, *order.CardGroupID)
	assert.Empty(t, order.FailureReason)

	assert.Equal(t, []string{"CARD-A"}, f.dispatcher.delivered())

	result, ok := f.publisher.last()
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, "order-1", result.OrderID)
}

func TestOnOrderObserved_NoRuleStaysProcessing(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "游戏点卡", groupID)
	f.seedOrder(t, "order-1", "手机壳包邮")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusProcessing, order.Status)
	assert.Nil(t, order.CardGroupID)
	assert.Empty(t, f.dispatcher.delivered())
}

func TestOnOrderObserved_IneligibleIsNoop(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))
	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	// 重复触发不再交付第二次
	assert.Len(t, f.dispatcher.delivered(), 1)

	stock, err := f.cardRepo.Stock(context.Background(), groupID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock.Consumed)
}

func TestOnOrderObserved_InsufficientInventory(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t) // 无卡
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusPendingShip, order.Status)
	assert.Contains(t, order.FailureReason, "card allocation failed")

	// 告警一次，广播失败结果
	assert.Equal(t, 1, f.notifier.count())
	result, ok := f.publisher.last()
	require.True(t, ok)
	assert.False(t, result.Success)
}

func TestOnOrderObserved_UnknownOrder(t *testing.T) {
	f := newFixture()
	err := f.service.OnOrderObserved(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestManualShip_RecoversAfterRestock(t *testing.T) {
	// 库存不足失败后补卡，人工触发完成发货
	f := newFixture()
	groupID := f.seedDataGroup(t)
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	_, err := f.cardRepo.AddInstances(context.Background(), groupID, []string{"CARD-X"})
	require.NoError(t, err)

	results, err := f.service.ManualShip(context.Background(), []string{"order-1"}, StrategyAutoMatch)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeShipped, results[0].Outcome)

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusShipped, order.Status)
	assert.Empty(t, order.FailureReason)
	assert.Equal(t, []string{"CARD-X"}, f.dispatcher.delivered())
}

func TestManualShip_NonPendingIsSkipped(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员")              // processing
	f.seedOrder(t, "order-2", "会员月卡")            // 将发货成功
	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-2")) // shipped

	results, err := f.service.ManualShip(context.Background(), []string{"order-1", "order-2", "ghost"}, "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, OutcomeSkipped, results[0].Outcome)
	assert.Equal(t, OutcomeSkipped, results[1].Outcome)
	assert.Equal(t, OutcomeFailed, results[2].Outcome)

	// 跳过的订单状态不变
	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusProcessing, order.Status)
}

func TestManualShip_Idempotent(t *testing.T) {
	// 人工发货重复触发同一订单不重复消耗卡密
	f := newFixture()
	groupID := f.seedDataGroup(t)
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")
	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	_, err := f.cardRepo.AddInstances(context.Background(), groupID, []string{"CARD-X", "CARD-Y"})
	require.NoError(t, err)

	first, err := f.service.ManualShip(context.Background(), []string{"order-1"}, StrategyAutoMatch)
	require.NoError(t, err)
	require.Equal(t, OutcomeShipped, first[0].Outcome)

	second, err := f.service.ManualShip(context.Background(), []string{"order-1"}, StrategyAutoMatch)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, second[0].Outcome)

	stock, err := f.cardRepo.Stock(context.Background(), groupID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock.Consumed)
}

func TestManualShip_RejectsUnknownStrategy(t *testing.T) {
	f := newFixture()
	_, err := f.service.ManualShip(context.Background(), []string{"order-1"}, "force_reship")
	assert.Error(t, err)
}

func TestFulfill_RetryThenSuccess(t *testing.T) {
	// 交付前两次失败，第三次成功，订单最终 shipped 无失败原因
	f := newFixture()
	f.dispatcher.failures = 2
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusShipped, order.Status)
	assert.Empty(t, order.FailureReason)
	assert.Equal(t, []string{"CARD-A"}, f.dispatcher.delivered())
}

func TestFulfill_DispatchExhaustedKeepsClaim(t *testing.T) {
	// 交付穷尽重试：卡密归属保持，订单 shipped 带失败原因，触发告警
	f := newFixture()
	f.dispatcher.failures = 10
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusShipped, order.Status)
	assert.Contains(t, order.FailureReason, "delivery failed")

	record, err := f.cardRepo.GetAllocation(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "CARD-A", record.Payload)

	assert.Equal(t, 1, f.notifier.count())
}

func TestOnMarketplaceEvent_CancelBeforeShip(t *testing.T) {
	f := newFixture()
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnMarketplaceEvent(context.Background(), "order-1", etorder.StatusCancelled))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusCancelled, order.Status)

	// 取消后自动发货不再触发
	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))
	assert.Empty(t, f.dispatcher.delivered())
}

func TestOnMarketplaceEvent_CompleteLifecycle(t *testing.T) {
	f := newFixture()
	groupID := f.seedDataGroup(t, "CARD-A")
	f.seedShippingRule(t, "会员", groupID)
	f.seedOrder(t, "order-1", "会员月卡")

	require.NoError(t, f.service.OnOrderObserved(context.Background(), "order-1"))
	require.NoError(t, f.service.OnMarketplaceEvent(context.Background(), "order-1", etorder.StatusCompleted))

	order, err := f.orderRepo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatusCompleted, order.Status)

	// completed 为终态，市场侧事件不再生效
	err = f.service.OnMarketplaceEvent(context.Background(), "order-1", etorder.StatusRefunding)
	assert.ErrorIs(t, err, etorder.ErrInvalidTransition)
}

func TestOnMarketplaceEvent_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	f.seedOrder(t, "order-1", "会员月卡")

	err := f.service.OnMarketplaceEvent(context.Background(), "order-1", etorder.StatusProcessing)
	assert.Error(t, err)
}

func TestConcurrentOrdersDrainInventoryExactly(t *testing.T) {
	// 三张卡四个并发订单：三单 shipped，一单停在 pending_ship
	f := newFixture()
	groupID := f.seedDataGroup(t, "A", "B", "C")
	f.seedShippingRule(t, "会员", groupID)

	const orders = 4
	for i := 0; i < orders; i++ {
		f.seedOrder(t, fmt.Sprintf("order-%d", i), "会员月卡")
	}

	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = f.service.OnOrderObserved(context.Background(), fmt.Sprintf("order-%d", idx))
		}(i)
	}
	wg.Wait()

	var shipped, pending int
	seen := make(map[string]bool)
	for i := 0; i < orders; i++ {
		order, err := f.orderRepo.GetByID(context.Background(), fmt.Sprintf("order-%d", i))
		require.NoError(t, err)
		switch order.Status {
		case etorder.StatusShipped:
			shipped++
			record, err := f.cardRepo.GetAllocation(context.Background(), order.ID)
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.False(t, seen[record.Payload], "card %s issued twice", record.Payload)
			seen[record.Payload] = true
		case etorder.StatusPendingShip:
			pending++
		default:
			t.Fatalf("unexpected status %s", order.Status)
		}
	}
	assert.Equal(t, 3, shipped)
	assert.Equal(t, 1, pending)
}
