package mdrule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rprule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
)

// 缓存快照超过此时长后回源重建
// apiserver 与 worker 各持一个 RuleModule，跨进程的规则编辑靠
// 变更广播即时失效，广播丢失时由 TTL 兜底收敛
const defaultSnapshotTTL = 3 * time.Second

// GroupChecker 校验发货规则指向的卡密组存在
type GroupChecker interface {
	GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error)
}

// RuleEventPublisher 规则变更广播出口（redis pub/sub 实现）
type RuleEventPublisher interface {
	PublishRuleChange(ctx context.Context, accountID int64) error
}

// Snapshot 规则快照（不可变）
// 匹配过程持有快照引用，期间的并发编辑不影响本次评估
type Snapshot struct {
	Version  int64
	Shipping []*etrule.ShippingRule
	Reply    []*etrule.ReplyRule
}

// cacheEntry 账号快照缓存条目
type cacheEntry struct {
	snap     *Snapshot
	loadedAt time.Time
	stale    bool // 收到跨进程变更通知后置位
}

func (e *cacheEntry) fresh(ttl time.Duration) bool {
	return !e.stale && time.Since(e.loadedAt) < ttl
}

// RuleModule 规则模块（Rule Store）
// 写入走仓储后整体重建账号快照并递增版本；读返回当前快照指针，
// 缓存过期或被失效通知标记后下次读取回源重建
type RuleModule struct {
	repo   rprule.RuleRepository
	groups GroupChecker

	events RuleEventPublisher
	log    logger.Logger
	ttl    time.Duration

	mu     sync.RWMutex
	byAcct map[int64]*cacheEntry
}

// NewRuleModule 创建规则模块
func NewRuleModule(repo rprule.RuleRepository, groups GroupChecker) *RuleModule {
	return &RuleModule{
		repo:   repo,
		groups: groups,
		ttl:    defaultSnapshotTTL,
		byAcct: make(map[int64]*cacheEntry),
	}
}

// EnableChangeBroadcast 配置规则变更广播（写侧进程调用）
// 每次成功写入后通知其他进程失效对应账号的缓存快照
func (m *RuleModule) EnableChangeBroadcast(events RuleEventPublisher, log logger.Logger) {
	m.events = events
	m.log = log
}

// SetSnapshotTTL 调整缓存快照的回源周期
func (m *RuleModule) SetSnapshotTTL(ttl time.Duration) {
	if ttl > 0 {
		m.ttl = ttl
	}
}

// Invalidate 失效账号缓存快照，下次读取强制回源（变更通知订阅侧调用）
func (m *RuleModule) Invalidate(accountID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.byAcct[accountID]; ok {
		entry.stale = true
	}
}

// Snapshot 获取账号规则快照，缓存未命中或过期时从仓储加载
func (m *RuleModule) Snapshot(ctx context.Context, accountID int64) (*Snapshot, error) {
	m.mu.RLock()
	entry, ok := m.byAcct[accountID]
	m.mu.RUnlock()
	if ok && entry.fresh(m.ttl) {
		return entry.snap, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 双检：等锁期间可能已被其他请求加载
	if entry, ok := m.byAcct[accountID]; ok && entry.fresh(m.ttl) {
		return entry.snap, nil
	}
	return m.reloadLocked(ctx, accountID, m.nextVersionLocked(accountID))
}

// UpsertShipping 新增/更新发货规则，返回新快照版本
func (m *RuleModule) UpsertShipping(ctx context.Context, rule *etrule.ShippingRule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}
	if m.groups != nil {
		if _, err := m.groups.GetGroup(ctx, rule.CardGroupID); err != nil {
			return 0, errorx.NewValidation("card_group_id", "card group does not exist")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.UpsertShipping(ctx, rule); err != nil {
		return 0, err
	}
	snap, err := m.reloadLocked(ctx, rule.AccountID, m.nextVersionLocked(rule.AccountID))
	if err != nil {
		return 0, err
	}
	m.broadcast(ctx, rule.AccountID)
	return snap.Version, nil
}

// DeleteShipping 删除发货规则，返回新快照版本
func (m *RuleModule) DeleteShipping(ctx context.Context, accountID, ruleID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.DeleteShipping(ctx, ruleID); err != nil {
		return 0, err
	}
	snap, err := m.reloadLocked(ctx, accountID, m.nextVersionLocked(accountID))
	if err != nil {
		return 0, err
	}
	m.broadcast(ctx, accountID)
	return snap.Version, nil
}

// UpsertReply 新增/更新回复规则，返回新快照版本
func (m *RuleModule) UpsertReply(ctx context.Context, rule *etrule.ReplyRule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.UpsertReply(ctx, rule); err != nil {
		return 0, err
	}
	snap, err := m.reloadLocked(ctx, rule.AccountID, m.nextVersionLocked(rule.AccountID))
	if err != nil {
		return 0, err
	}
	m.broadcast(ctx, rule.AccountID)
	return snap.Version, nil
}

// DeleteReply 删除回复规则，返回新快照版本
func (m *RuleModule) DeleteReply(ctx context.Context, accountID, ruleID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.DeleteReply(ctx, ruleID); err != nil {
		return 0, err
	}
	snap, err := m.reloadLocked(ctx, accountID, m.nextVersionLocked(accountID))
	if err != nil {
		return 0, err
	}
	m.broadcast(ctx, accountID)
	return snap.Version, nil
}

// broadcast 通知其他进程失效账号缓存
// 广播失败不影响已完成的写入，过期收敛交给 TTL
func (m *RuleModule) broadcast(ctx context.Context, accountID int64) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishRuleChange(ctx, accountID); err != nil && m.log != nil {
		m.log.Warnf(ctx, "[RuleModule] rule change broadcast failed for account %d: %v", accountID, err)
	}
}

// nextVersionLocked 计算账号下一个快照版本（需持有写锁）
func (m *RuleModule) nextVersionLocked(accountID int64) int64 {
	if entry, ok := m.byAcct[accountID]; ok {
		return entry.snap.Version + 1
	}
	return 1
}

// reloadLocked 从仓储整体重建账号快照（需持有写锁）
func (m *RuleModule) reloadLocked(ctx context.Context, accountID, version int64) (*Snapshot, error) {
	shipping, err := m.repo.ListShipping(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load shipping rules failed: %w", err)
	}
	reply, err := m.repo.ListReply(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load reply rules failed: %w", err)
	}

	snap := &Snapshot{
		Version:  version,
		Shipping: shipping,
		Reply:    reply,
	}
	m.byAcct[accountID] = &cacheEntry{snap: snap, loadedAt: time.Now()}
	return snap, nil
}
