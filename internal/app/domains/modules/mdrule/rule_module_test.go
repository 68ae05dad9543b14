package mdrule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// fakeRuleRepo 内存规则仓储
type fakeRuleRepo struct {
	mu       sync.Mutex
	nextID   int64
	shipping map[int64]*etrule.ShippingRule
	reply    map[int64]*etrule.ReplyRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{
		nextID:   1,
		shipping: make(map[int64]*etrule.ShippingRule),
		reply:    make(map[int64]*etrule.ReplyRule),
	}
}

func (f *fakeRuleRepo) ListShipping(ctx context.Context, accountID int64) ([]*etrule.ShippingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*etrule.ShippingRule
	for _, r := range f.shipping {
		if r.AccountID == accountID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) UpsertShipping(ctx context.Context, rule *etrule.ShippingRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = f.nextID
		f.nextID++
	}
	copied := *rule
	f.shipping[rule.ID] = &copied
	return nil
}

func (f *fakeRuleRepo) DeleteShipping(ctx context.Context, ruleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.shipping, ruleID)
	return nil
}

func (f *fakeRuleRepo) ListReply(ctx context.Context, accountID int64) ([]*etrule.ReplyRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*etrule.ReplyRule
	for _, r := range f.reply {
		if r.AccountID == accountID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) UpsertReply(ctx context.Context, rule *etrule.ReplyRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = f.nextID
		f.nextID++
	}
	copied := *rule
	f.reply[rule.ID] = &copied
	return nil
}

func (f *fakeRuleRepo) DeleteReply(ctx context.Context, ruleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reply, ruleID)
	return nil
}

// fakeGroupChecker 固定存在的卡密组集合
type fakeGroupChecker struct {
	existing map[int64]bool
}

func (f *fakeGroupChecker) GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error) {
	if f.existing[groupID] {
		return &etcard.CardGroup{ID: groupID, Enabled: true}, nil
	}
	return nil, errorx.ErrGroupNotFound
}

func newTestModule() (*RuleModule, *fakeRuleRepo) {
	repo := newFakeRuleRepo()
	checker := &fakeGroupChecker{existing: map[int64]bool{100: true, 200: true}}
	return NewRuleModule(repo, checker), repo
}

func validShipping(accountID int64) *etrule.ShippingRule {
	return &etrule.ShippingRule{
		AccountID:   accountID,
		Name:        "视频会员",
		Priority:    10,
		ItemKeyword: "会员",
		CardGroupID: 100,
		Enabled:     true,
	}
}

func TestSnapshot_EmptyAccount(t *testing.T) {
	module, _ := newTestModule()

	snap, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Empty(t, snap.Shipping)
	assert.Empty(t, snap.Reply)
}

func TestUpsertShipping_BumpsVersion(t *testing.T) {
	module, _ := newTestModule()

	v1, err := module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	v2, err := module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	snap, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, v2, snap.Version)
	assert.Len(t, snap.Shipping, 2)
}

func TestUpsertShipping_RejectsInvalid(t *testing.T) {
	module, _ := newTestModule()

	rule := validShipping(1)
	rule.ItemKeyword = ""
	_, err := module.UpsertShipping(context.Background(), rule)
	assert.True(t, errorx.IsValidation(err))
}

func TestUpsertShipping_RejectsMissingGroup(t *testing.T) {
	module, _ := newTestModule()

	rule := validShipping(1)
	rule.CardGroupID = 999
	_, err := module.UpsertShipping(context.Background(), rule)
	assert.True(t, errorx.IsValidation(err))
}

func TestSnapshot_ImmutableUnderEdit(t *testing.T) {
	// 已取出的快照不受后续编辑影响
	module, _ := newTestModule()

	_, err := module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	old, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, old.Shipping, 1)

	_, err = module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	assert.Len(t, old.Shipping, 1)

	fresh, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, fresh.Shipping, 2)
	assert.Greater(t, fresh.Version, old.Version)
}

func TestDeleteShipping_BumpsVersion(t *testing.T) {
	module, repo := newTestModule()

	rule := validShipping(1)
	v1, err := module.UpsertShipping(context.Background(), rule)
	require.NoError(t, err)

	v2, err := module.DeleteShipping(context.Background(), 1, rule.ID)
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	rules, err := repo.ListShipping(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestUpsertReply_Validation(t *testing.T) {
	module, _ := newTestModule()

	_, err := module.UpsertReply(context.Background(), &etrule.ReplyRule{
		AccountID: 1, Keyword: "退款", MatchType: "regex", ReplyContent: "x",
	})
	assert.True(t, errorx.IsValidation(err))

	v, err := module.UpsertReply(context.Background(), &etrule.ReplyRule{
		AccountID: 1, Keyword: "退款", MatchType: etrule.MatchExact, ReplyContent: "请联系客服", Enabled: true,
	})
	require.NoError(t, err)
	assert.Greater(t, v, int64(0))
}

func TestSnapshot_AccountsIsolated(t *testing.T) {
	module, _ := newTestModule()

	_, err := module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	snap2, err := module.Snapshot(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, snap2.Shipping)

	snap1, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, snap1.Shipping, 1)
}

func TestConcurrentEditsAndReads(t *testing.T) {
	module, _ := newTestModule()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = module.UpsertShipping(context.Background(), validShipping(1))
		}()
		go func() {
			defer wg.Done()
			snap, err := module.Snapshot(context.Background(), 1)
			assert.NoError(t, err)
			assert.NotNil(t, snap)
		}()
	}
	wg.Wait()

	snap, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, snap.Shipping, 10)
}

// fakeEventPublisher 记录广播过的账号
type fakeEventPublisher struct {
	mu       sync.Mutex
	accounts []int64
}

func (f *fakeEventPublisher) PublishRuleChange(ctx context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, accountID)
	return nil
}

func TestSnapshot_InvalidateReloadsCrossInstance(t *testing.T) {
	// 两个模块实例共享仓储，模拟 apiserver 与 worker 两个进程
	repo := newFakeRuleRepo()
	checker := &fakeGroupChecker{existing: map[int64]bool{100: true}}
	writer := NewRuleModule(repo, checker)
	reader := NewRuleModule(repo, checker)

	// reader 先读一次，缓存空快照
	snap, err := reader.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, snap.Shipping)

	// writer 写入后 reader 收到变更通知
	_, err = writer.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)
	reader.Invalidate(1)

	snap, err = reader.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snap.Shipping, 1)
	assert.Equal(t, "会员", snap.Shipping[0].ItemKeyword)
}

func TestSnapshot_TTLExpiryReloadsCrossInstance(t *testing.T) {
	// 变更通知丢失时，过期回源兜底收敛
	repo := newFakeRuleRepo()
	checker := &fakeGroupChecker{existing: map[int64]bool{100: true}}
	writer := NewRuleModule(repo, checker)
	reader := NewRuleModule(repo, checker)
	reader.SetSnapshotTTL(time.Millisecond)

	snap, err := reader.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, snap.Shipping)
	firstVersion := snap.Version

	_, err = writer.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	snap, err = reader.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snap.Shipping, 1)
	assert.Greater(t, snap.Version, firstVersion)
}

func TestSnapshot_FreshCacheServedWithoutReload(t *testing.T) {
	module, repo := newTestModule()

	_, err := module.UpsertShipping(context.Background(), validShipping(1))
	require.NoError(t, err)

	before, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	after, err := module.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, before, after, "TTL 内的重复读取应复用同一快照")
	_ = repo
}

func TestMutations_BroadcastRuleChange(t *testing.T) {
	module, _ := newTestModule()
	publisher := &fakeEventPublisher{}
	module.EnableChangeBroadcast(publisher, nil)

	rule := validShipping(7)
	_, err := module.UpsertShipping(context.Background(), rule)
	require.NoError(t, err)
	_, err = module.DeleteShipping(context.Background(), 7, rule.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{7, 7}, publisher.accounts)
}
