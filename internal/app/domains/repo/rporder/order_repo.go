package rporder

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
)

// ListFilter 订单列表查询条件
type ListFilter struct {
	AccountID int64              // 0 表示全部账号
	Status    etorder.OrderStatus // 空表示全部状态
	Page      int
	PageSize  int
}

// OrderRepository 订单仓储接口（只定义，不实现）
// 实现在本包 gorm 实现与测试内存实现中
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *etorder.Order) error

	// GetByID 根据内部ID查询订单
	GetByID(ctx context.Context, orderID string) (*etorder.Order, error)

	// GetByMarketplaceNo 根据账号ID和闲鱼订单号查询（同步去重），未找到返回 nil, nil
	GetByMarketplaceNo(ctx context.Context, accountID int64, orderNo string) (*etorder.Order, error)

	// Update 持久化订单状态、分配引用与失败原因
	Update(ctx context.Context, order *etorder.Order) error

	// List 分页查询订单列表，返回记录与总数
	List(ctx context.Context, filter ListFilter) ([]*etorder.Order, int64, error)
}
