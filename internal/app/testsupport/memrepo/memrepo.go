// Package memrepo 提供服务层测试用的内存仓储实现
// 语义对齐 gorm 实现：ClaimNextFree 原子消耗，GetAllocation 未找到返回 nil, nil
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// OrderRepo 内存订单仓储
type OrderRepo struct {
	mu     sync.Mutex
	orders map[string]*etorder.Order
}

// NewOrderRepo 创建内存订单仓储
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[string]*etorder.Order)}
}

// Create 创建订单
func (r *OrderRepo) Create(ctx context.Context, order *etorder.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.AccountID == order.AccountID && o.MarketplaceOrderNo == order.MarketplaceOrderNo {
			return errorx.ErrDuplicateOrder
		}
	}
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

// GetByID 根据ID查询订单
func (r *OrderRepo) GetByID(ctx context.Context, orderID string) (*etorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, errorx.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

// GetByMarketplaceNo 根据账号与闲鱼订单号查询
func (r *OrderRepo) GetByMarketplaceNo(ctx context.Context, accountID int64, orderNo string) (*etorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.AccountID == accountID && o.MarketplaceOrderNo == orderNo {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

// Update 更新订单
func (r *OrderRepo) Update(ctx context.Context, order *etorder.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return errorx.ErrOrderNotFound
	}
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

// List 分页查询订单
func (r *OrderRepo) List(ctx context.Context, filter rporder.ListFilter) ([]*etorder.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*etorder.Order
	for _, o := range r.orders {
		if filter.AccountID != 0 && o.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		copied := *o
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return strings.Compare(matched[i].ID, matched[j].ID) < 0
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// CardRepo 内存卡密仓储
type CardRepo struct {
	mu          sync.Mutex
	nextID      int64
	groups      map[int64]*etcard.CardGroup
	instances   []*etcard.CardInstance
	allocations map[string]*etcard.AllocationRecord
}

// NewCardRepo 创建内存卡密仓储
func NewCardRepo() *CardRepo {
	return &CardRepo{
		nextID:      1,
		groups:      make(map[int64]*etcard.CardGroup),
		allocations: make(map[string]*etcard.AllocationRecord),
	}
}

// CreateGroup 创建卡密组
func (r *CardRepo) CreateGroup(ctx context.Context, group *etcard.CardGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.ID = r.nextID
	r.nextID++
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

// UpdateGroup 更新卡密组
func (r *CardRepo) UpdateGroup(ctx context.Context, group *etcard.CardGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.ID]; !ok {
		return errorx.ErrGroupNotFound
	}
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

// DeleteGroup 删除卡密组及其实例
func (r *CardRepo) DeleteGroup(ctx context.Context, groupID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, groupID)
	kept := r.instances[:0]
	for _, inst := range r.instances {
		if inst.GroupID != groupID {
			kept = append(kept, inst)
		}
	}
	r.instances = kept
	return nil
}

// GetGroup 查询卡密组
func (r *CardRepo) GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[groupID]
	if !ok {
		return nil, errorx.ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

// ListGroups 查询卡密组列表
func (r *CardRepo) ListGroups(ctx context.Context, accountID int64) ([]*etcard.CardGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*etcard.CardGroup
	for _, g := range r.groups {
		if accountID == 0 || g.AccountID == accountID {
			copied := *g
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddInstances 批量导入卡密
func (r *CardRepo) AddInstances(ctx context.Context, groupID int64, payloads []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range payloads {
		r.instances = append(r.instances, &etcard.CardInstance{
			ID:        r.nextID,
			GroupID:   groupID,
			Payload:   p,
			CreatedAt: time.Now(),
		})
		r.nextID++
	}
	return len(payloads), nil
}

// Stock 统计组库存
func (r *CardRepo) Stock(ctx context.Context, groupID int64) (*etcard.GroupStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock := &etcard.GroupStock{GroupID: groupID}
	for _, inst := range r.instances {
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

// GetAllocation 查询订单分配记录
func (r *CardRepo) GetAllocation(ctx context.Context, orderID string) (*etcard.AllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.allocations[orderID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// ClaimNextFree 原子领取最小序号空闲卡密
func (r *CardRepo) ClaimNextFree(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
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
		r.allocations[orderID] = record
		copied := *record
		return &copied, nil
	}
	return nil, errorx.ErrInsufficientInventory
}

// SaveAllocation 写分配记录
func (r *CardRepo) SaveAllocation(ctx context.Context, record *etcard.AllocationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.allocations[record.OrderID] = &copied
	return nil
}

// RuleRepo 内存规则仓储
type RuleRepo struct {
	mu       sync.Mutex
	nextID   int64
	shipping map[int64]*etrule.ShippingRule
	reply    map[int64]*etrule.ReplyRule
}

// NewRuleRepo 创建内存规则仓储
func NewRuleRepo() *RuleRepo {
	return &RuleRepo{
		nextID:   1,
		shipping: make(map[int64]*etrule.ShippingRule),
		reply:    make(map[int64]*etrule.ReplyRule),
	}
}

// ListShipping 查询发货规则
func (r *RuleRepo) ListShipping(ctx context.Context, accountID int64) ([]*etrule.ShippingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*etrule.ShippingRule
	for _, rule := range r.shipping {
		if accountID == 0 || rule.AccountID == accountID {
			copied := *rule
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertShipping 新增或更新发货规则
func (r *RuleRepo) UpsertShipping(ctx context.Context, rule *etrule.ShippingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = r.nextID
		r.nextID++
	}
	copied := *rule
	r.shipping[rule.ID] = &copied
	return nil
}

// DeleteShipping 删除发货规则
func (r *RuleRepo) DeleteShipping(ctx context.Context, ruleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipping[ruleID]; !ok {
		return errorx.ErrRuleNotFound
	}
	delete(r.shipping, ruleID)
	return nil
}

// ListReply 查询回复规则
func (r *RuleRepo) ListReply(ctx context.Context, accountID int64) ([]*etrule.ReplyRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*etrule.ReplyRule
	for _, rule := range r.reply {
		if accountID == 0 || rule.AccountID == accountID {
			copied := *rule
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertReply 新增或更新回复规则
func (r *RuleRepo) UpsertReply(ctx context.Context, rule *etrule.ReplyRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = r.nextID
		r.nextID++
	}
	copied := *rule
	r.reply[rule.ID] = &copied
	return nil
}

// DeleteReply 删除回复规则
func (r *RuleRepo) DeleteReply(ctx context.Context, ruleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reply[ruleID]; !ok {
		return errorx.ErrRuleNotFound
	}
	delete(r.reply, ruleID)
	return nil
}

// SettingRepo 内存系统配置仓储
type SettingRepo struct {
	mu       sync.Mutex
	settings etsetting.SystemSettings
}

// NewSettingRepo 创建内存系统配置仓储
func NewSettingRepo() *SettingRepo {
	return &SettingRepo{}
}

// Get 读取系统配置
func (r *SettingRepo) Get(ctx context.Context) (*etsetting.SystemSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := r.settings
	return &copied, nil
}

// Update 整体覆盖系统配置
func (r *SettingRepo) Update(ctx context.Context, settings *etsetting.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = *settings
	r.settings.UpdatedAt = time.Now()
	return nil
}

// AccountRepo 内存账号仓储
type AccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*etaccount.Account
}

// NewAccountRepo 创建内存账号仓储
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{nextID: 1, accounts: make(map[int64]*etaccount.Account)}
}

// Create 创建账号
func (r *AccountRepo) Create(ctx context.Context, account *etaccount.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account.ID = r.nextID
	r.nextID++
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

// GetByID 根据ID查询账号
func (r *AccountRepo) GetByID(ctx context.Context, accountID int64) (*etaccount.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, errorx.NewBusinessError(404, "account not found")
	}
	copied := *account
	return &copied, nil
}

// List 查询全部账号
func (r *AccountRepo) List(ctx context.Context) ([]*etaccount.Account, error) {
	return r.list(false), nil
}

// ListEnabled 查询启用账号
func (r *AccountRepo) ListEnabled(ctx context.Context) ([]*etaccount.Account, error) {
	return r.list(true), nil
}

func (r *AccountRepo) list(enabledOnly bool) []*etaccount.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*etaccount.Account
	for _, a := range r.accounts {
		if enabledOnly && !a.Enabled {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Exists 检查账号是否存在
func (r *AccountRepo) Exists(ctx context.Context, accountID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[accountID]
	return ok, nil
}
