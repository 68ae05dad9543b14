package mdcard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// fakeCardRepo 内存卡密仓储，ClaimNextFree 用互斥锁模拟数据库事务语义
type fakeCardRepo struct {
	mu          sync.Mutex
	nextID      int64
	groups      map[int64]*etcard.CardGroup
	instances   []*etcard.CardInstance
	allocations map[string]*etcard.AllocationRecord
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{
		nextID:      1,
		groups:      make(map[int64]*etcard.CardGroup),
		allocations: make(map[string]*etcard.AllocationRecord),
	}
}

func (f *fakeCardRepo) CreateGroup(ctx context.Context, group *etcard.CardGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	group.ID = f.nextID
	f.nextID++
	f.groups[group.ID] = group
	return nil
}

func (f *fakeCardRepo) UpdateGroup(ctx context.Context, group *etcard.CardGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[group.ID] = group
	return nil
}

func (f *fakeCardRepo) DeleteGroup(ctx context.Context, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, groupID)
	return nil
}

func (f *fakeCardRepo) GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group, ok := f.groups[groupID]
	if !ok {
		return nil, errorx.ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

func (f *fakeCardRepo) ListGroups(ctx context.Context, accountID int64) ([]*etcard.CardGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*etcard.CardGroup
	for _, g := range f.groups {
		if accountID == 0 || g.AccountID == accountID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCardRepo) AddInstances(ctx context.Context, groupID int64, payloads []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range payloads {
		f.instances = append(f.instances, &etcard.CardInstance{
			ID:      f.nextID,
			GroupID: groupID,
			Payload: p,
		})
		f.nextID++
	}
	return len(payloads), nil
}

func (f *fakeCardRepo) Stock(ctx context.Context, groupID int64) (*etcard.GroupStock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stock := &etcard.GroupStock{GroupID: groupID}
	for _, inst := range f.instances {
		if inst.GroupID != groupID {
			continue
		}
		if inst.Free() {
			stock.Free++
		} else {
			stock.Consumed++
		}
	}
	return stock, nil
}

func (f *fakeCardRepo) GetAllocation(ctx context.Context, orderID string) (*etcard.AllocationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.allocations[orderID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeCardRepo) ClaimNextFree(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.GroupID != groupID || !inst.Free() {
			continue
		}
		now := time.Now()
		inst.ConsumedBy = orderID
		inst.ConsumedAt = &now
		record := &etcard.AllocationRecord{
			OrderID:    orderID,
			GroupID:    groupID,
			InstanceID: &inst.ID,
			Payload:    inst.Payload,
			CreatedAt:  now,
		}
		f.allocations[orderID] = record
		copied := *record
		return &copied, nil
	}
	return nil, errorx.ErrInsufficientInventory
}

func (f *fakeCardRepo) SaveAllocation(ctx context.Context, record *etcard.AllocationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.allocations[record.OrderID] = &copied
	return nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	payload string
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint, orderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.payload, f.err
}

func seedDataGroup(t *testing.T, repo *fakeCardRepo, payloads ...string) int64 {
	t.Helper()
	group := &etcard.CardGroup{AccountID: 1, Name: "序列卡", Kind: etcard.KindData, Enabled: true}
	require.NoError(t, repo.CreateGroup(context.Background(), group))
	_, err := repo.AddInstances(context.Background(), group.ID, payloads)
	require.NoError(t, err)
	return group.ID
}

func TestAllocate_DataGroupConsumesInOrder(t *testing.T) {
	repo := newFakeCardRepo()
	groupID := seedDataGroup(t, repo, "A", "B", "C")
	module := NewCardModule(repo, nil)

	for i, want := range []string{"A", "B", "C"} {
		record, err := module.Allocate(context.Background(), groupID, fmt.Sprintf("order-%d", i))
		require.NoError(t, err)
		assert.Equal(t, want, record.Payload)
		require.NotNil(t, record.InstanceID)
	}

	_, err := module.Allocate(context.Background(), groupID, "order-overflow")
	assert.ErrorIs(t, err, errorx.ErrInsufficientInventory)
}

func TestAllocate_Idempotent(t *testing.T) {
	repo := newFakeCardRepo()
	groupID := seedDataGroup(t, repo, "A", "B")
	module := NewCardModule(repo, nil)

	first, err := module.Allocate(context.Background(), groupID, "order-1")
	require.NoError(t, err)

	// 同一订单重复分配返回同一条记录，不消耗第二张卡
	for i := 0; i < 5; i++ {
		again, err := module.Allocate(context.Background(), groupID, "order-1")
		require.NoError(t, err)
		assert.Equal(t, first.Payload, again.Payload)
		assert.Equal(t, first.InstanceID, again.InstanceID)
	}

	stock, err := module.Stock(context.Background(), groupID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock.Free)
	assert.Equal(t, int64(1), stock.Consumed)
}

func TestAllocate_ConcurrentExclusivity(t *testing.T) {
	// N 张卡 N+1 个并发订单：每张卡至多发给一个订单，多出的订单拿到库存不足
	repo := newFakeCardRepo()
	groupID := seedDataGroup(t, repo, "A", "B", "C")
	module := NewCardModule(repo, nil)

	const orders = 4
	var wg sync.WaitGroup
	results := make([]*etcard.AllocationRecord, orders)
	errs := make([]error, orders)
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = module.Allocate(context.Background(), groupID, fmt.Sprintf("order-%d", idx))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]string)
	var insufficient int
	for i := 0; i < orders; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], errorx.ErrInsufficientInventory)
			insufficient++
			continue
		}
		owner, dup := seen[results[i].Payload]
		assert.False(t, dup, "card %s issued to both %s and order-%d", results[i].Payload, owner, i)
		seen[results[i].Payload] = results[i].OrderID
	}
	assert.Equal(t, 1, insufficient)
	assert.Len(t, seen, 3)
}

func TestAllocate_TextGroupReusable(t *testing.T) {
	repo := newFakeCardRepo()
	group := &etcard.CardGroup{AccountID: 1, Name: "固定文本", Kind: etcard.KindText, Payload: "兑换码XYZ", Enabled: true}
	require.NoError(t, repo.CreateGroup(context.Background(), group))
	module := NewCardModule(repo, nil)

	// text 组内容可复用，多个订单各得一条记录、同一内容
	for i := 0; i < 3; i++ {
		record, err := module.Allocate(context.Background(), group.ID, fmt.Sprintf("order-%d", i))
		require.NoError(t, err)
		assert.Equal(t, "兑换码XYZ", record.Payload)
		assert.Nil(t, record.InstanceID)
	}
}

func TestAllocate_APIGroup(t *testing.T) {
	repo := newFakeCardRepo()
	group := &etcard.CardGroup{AccountID: 1, Name: "接口取卡", Kind: etcard.KindAPI, Payload: "https://cards.example.com/pick", Enabled: true}
	require.NoError(t, repo.CreateGroup(context.Background(), group))

	fetcher := &fakeFetcher{payload: "remote-card-001"}
	module := NewCardModule(repo, fetcher)

	record, err := module.Allocate(context.Background(), group.ID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "remote-card-001", record.Payload)
	assert.Equal(t, 1, fetcher.calls)

	// 幂等命中复用落库结果，不再发起外部调用
	again, err := module.Allocate(context.Background(), group.ID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, record.Payload, again.Payload)
	assert.Equal(t, 1, fetcher.calls)
}

func TestAllocate_APIGroupFetchFailure(t *testing.T) {
	repo := newFakeCardRepo()
	group := &etcard.CardGroup{AccountID: 1, Name: "接口取卡", Kind: etcard.KindAPI, Payload: "https://cards.example.com/pick", Enabled: true}
	require.NoError(t, repo.CreateGroup(context.Background(), group))

	fetcher := &fakeFetcher{err: errors.New("upstream timeout")}
	module := NewCardModule(repo, fetcher)

	_, err := module.Allocate(context.Background(), group.ID, "order-1")
	assert.ErrorIs(t, err, errorx.ErrExternalCallFailed)
	assert.True(t, errorx.IsRetryable(err))

	// 失败不落库，下次重试可成功
	record, err := repo.GetAllocation(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestAllocate_DisabledGroup(t *testing.T) {
	repo := newFakeCardRepo()
	group := &etcard.CardGroup{AccountID: 1, Name: "停用组", Kind: etcard.KindText, Payload: "x", Enabled: false}
	require.NoError(t, repo.CreateGroup(context.Background(), group))
	module := NewCardModule(repo, nil)

	_, err := module.Allocate(context.Background(), group.ID, "order-1")
	assert.ErrorIs(t, err, errorx.ErrGroupDisabled)
}

func TestAllocate_GroupNotFound(t *testing.T) {
	module := NewCardModule(newFakeCardRepo(), nil)
	_, err := module.Allocate(context.Background(), 999, "order-1")
	assert.ErrorIs(t, err, errorx.ErrGroupNotFound)
}

func TestImportInstances_OnlyDataGroups(t *testing.T) {
	repo := newFakeCardRepo()
	text := &etcard.CardGroup{AccountID: 1, Name: "文本组", Kind: etcard.KindText, Payload: "x", Enabled: true}
	require.NoError(t, repo.CreateGroup(context.Background(), text))
	module := NewCardModule(repo, nil)

	_, err := module.ImportInstances(context.Background(), text.ID, []string{"A"})
	assert.True(t, errorx.IsValidation(err))

	dataID := seedDataGroup(t, repo)
	n, err := module.ImportInstances(context.Background(), dataID, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
