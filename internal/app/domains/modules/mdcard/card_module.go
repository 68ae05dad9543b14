package mdcard

import (
	"context"
	"fmt"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpcard"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/keymutex"
)

// PayloadFetcher api 组取卡：调用外部接口换取本次交付内容
type PayloadFetcher interface {
	Fetch(ctx context.Context, endpoint, orderID string) (string, error)
}

// CardModule 卡密库存模块
// Allocate 是唯一的分配入口：幂等、组内互斥、先落库后返回
type CardModule struct {
	repo    rpcard.CardRepository
	fetcher PayloadFetcher

	locks *keymutex.KeyMutex[int64] // groupID -> 组级互斥锁
}

// NewCardModule 创建卡密模块
func NewCardModule(repo rpcard.CardRepository, fetcher PayloadFetcher) *CardModule {
	return &CardModule{
		repo:    repo,
		fetcher: fetcher,
		locks:   keymutex.New[int64](),
	}
}

// Allocate 为订单分配卡密内容
// 同一订单重复调用返回首次的分配记录，不重复消耗库存；
// data 组并发分配由组锁加数据库事务双重保护，一条卡密至多发给一个订单
func (m *CardModule) Allocate(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error) {
	if orderID == "" {
		return nil, errorx.NewValidation("order_id", "cannot be empty")
	}

	// 幂等快路径：已有记录直接复用
	if record, err := m.repo.GetAllocation(ctx, orderID); err != nil {
		return nil, err
	} else if record != nil {
		return record, nil
	}

	m.locks.Lock(groupID)
	defer m.locks.Unlock(groupID)

	// 锁内复查：同订单的并发重试可能已在等锁期间完成分配
	if record, err := m.repo.GetAllocation(ctx, orderID); err != nil {
		return nil, err
	} else if record != nil {
		return record, nil
	}

	group, err := m.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.Enabled {
		return nil, errorx.ErrGroupDisabled
	}

	switch group.Kind {
	case etcard.KindData:
		return m.repo.ClaimNextFree(ctx, groupID, orderID)
	case etcard.KindText, etcard.KindImage:
		return m.saveStatic(ctx, group, orderID, group.Payload)
	case etcard.KindAPI:
		payload, err := m.fetchRemote(ctx, group, orderID)
		if err != nil {
			return nil, err
		}
		return m.saveStatic(ctx, group, orderID, payload)
	default:
		return nil, errorx.NewBusinessError(500, fmt.Sprintf("unknown card kind: %s", group.Kind))
	}
}

// CreateGroup 创建卡密组
func (m *CardModule) CreateGroup(ctx context.Context, group *etcard.CardGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}
	return m.repo.CreateGroup(ctx, group)
}

// UpdateGroup 更新卡密组
func (m *CardModule) UpdateGroup(ctx context.Context, group *etcard.CardGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}
	if _, err := m.repo.GetGroup(ctx, group.ID); err != nil {
		return err
	}
	return m.repo.UpdateGroup(ctx, group)
}

// DeleteGroup 删除卡密组及其全部卡密实例
func (m *CardModule) DeleteGroup(ctx context.Context, groupID int64) error {
	if _, err := m.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return m.repo.DeleteGroup(ctx, groupID)
}

// GetGroup 查询卡密组
func (m *CardModule) GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error) {
	return m.repo.GetGroup(ctx, groupID)
}

// ListGroups 查询卡密组列表
func (m *CardModule) ListGroups(ctx context.Context, accountID int64) ([]*etcard.CardGroup, error) {
	return m.repo.ListGroups(ctx, accountID)
}

// ImportInstances 批量导入卡密，仅 data 组允许
func (m *CardModule) ImportInstances(ctx context.Context, groupID int64, payloads []string) (int, error) {
	group, err := m.repo.GetGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if group.Kind != etcard.KindData {
		return 0, errorx.NewValidation("group_id", "only data groups accept card imports")
	}
	if len(payloads) == 0 {
		return 0, nil
	}
	return m.repo.AddInstances(ctx, groupID, payloads)
}

// Stock 统计组库存
func (m *CardModule) Stock(ctx context.Context, groupID int64) (*etcard.GroupStock, error) {
	return m.repo.Stock(ctx, groupID)
}

// GetAllocation 查询订单分配记录
func (m *CardModule) GetAllocation(ctx context.Context, orderID string) (*etcard.AllocationRecord, error) {
	return m.repo.GetAllocation(ctx, orderID)
}

// saveStatic 写非序列组（text/image/api）的分配记录
func (m *CardModule) saveStatic(ctx context.Context, group *etcard.CardGroup, orderID, payload string) (*etcard.AllocationRecord, error) {
	record := &etcard.AllocationRecord{
		OrderID:   orderID,
		GroupID:   group.ID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := m.repo.SaveAllocation(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// fetchRemote api 组调用外部接口取卡，失败归类为可重试的外部调用错误
func (m *CardModule) fetchRemote(ctx context.Context, group *etcard.CardGroup, orderID string) (string, error) {
	if m.fetcher == nil {
		return "", fmt.Errorf("%w: no payload fetcher configured", errorx.ErrExternalCallFailed)
	}
	payload, err := m.fetcher.Fetch(ctx, group.Payload, orderID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errorx.ErrExternalCallFailed, err)
	}
	if payload == "" {
		return "", fmt.Errorf("%w: empty payload from %s", errorx.ErrExternalCallFailed, group.Payload)
	}
	return payload, nil
}
