package mdorder

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rporder"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// 列表分页默认值与上限
const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListResult 订单列表查询结果
type ListResult struct {
	Orders     []*etorder.Order
	Total      int64
	Page       int
	PageSize   int
	TotalPages int64
}

// OrderModule 订单模块：订单读模型与查询编排
type OrderModule struct {
	orderRepo   rporder.OrderRepository
	accountRepo rpaccount.AccountRepository
}

// NewOrderModule 创建订单模块
func NewOrderModule(orderRepo rporder.OrderRepository, accountRepo rpaccount.AccountRepository) *OrderModule {
	return &OrderModule{
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
	}
}

// Get 查询订单详情
func (m *OrderModule) Get(ctx context.Context, orderID string) (*etorder.Order, error) {
	if orderID == "" {
		return nil, errorx.NewValidation("order_id", "cannot be empty")
	}
	return m.orderRepo.GetByID(ctx, orderID)
}

// List 分页查询订单，规整分页参数并计算总页数
func (m *OrderModule) List(ctx context.Context, filter rporder.ListFilter) (*ListResult, error) {
	if filter.Page <= 0 {
		filter.Page = defaultPage
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, errorx.NewValidation("status", "unknown order status")
	}
	if filter.AccountID > 0 {
		exists, err := m.accountRepo.Exists(ctx, filter.AccountID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errorx.NewBusinessError(404, "account not found")
		}
	}

	orders, total, err := m.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(filter.PageSize)
	if total%int64(filter.PageSize) != 0 {
		totalPages++
	}
	return &ListResult{
		Orders:     orders,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

func validStatus(s etorder.OrderStatus) bool {
	switch s {
	case etorder.StatusProcessing, etorder.StatusPendingShip, etorder.StatusShipped,
		etorder.StatusCompleted, etorder.StatusCancelled, etorder.StatusRefunding:
		return true
	}
	return false
}
