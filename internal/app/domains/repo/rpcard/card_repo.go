package rpcard

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
)

// CardRepository 卡密仓储接口
// ClaimNextFree 是不变量的落点：取最小序号空闲实例、标记消耗、写分配记录
// 必须在同一个事务内完成
type CardRepository interface {
	// CreateGroup 创建卡密组
	CreateGroup(ctx context.Context, group *etcard.CardGroup) error

	// UpdateGroup 更新卡密组（名称/内容/启停）
	UpdateGroup(ctx context.Context, group *etcard.CardGroup) error

	// DeleteGroup 删除卡密组
	DeleteGroup(ctx context.Context, groupID int64) error

	// GetGroup 查询卡密组，未找到返回 errorx.ErrGroupNotFound
	GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error)

	// ListGroups 查询账号下卡密组，accountID 为 0 表示全部
	ListGroups(ctx context.Context, accountID int64) ([]*etcard.CardGroup, error)

	// AddInstances 批量导入卡密（data 组），返回导入条数
	AddInstances(ctx context.Context, groupID int64, payloads []string) (int, error)

	// Stock 统计组库存（空闲/已消耗）
	Stock(ctx context.Context, groupID int64) (*etcard.GroupStock, error)

	// GetAllocation 查询订单分配记录，未找到返回 nil, nil
	GetAllocation(ctx context.Context, orderID string) (*etcard.AllocationRecord, error)

	// ClaimNextFree 原子领取 data 组的下一条空闲卡密并写分配记录
	// 无空闲实例返回 errorx.ErrInsufficientInventory
	ClaimNextFree(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error)

	// SaveAllocation 写分配记录（text/image/api 组先解析内容再落库）
	SaveAllocation(ctx context.Context, record *etcard.AllocationRecord) error
}
