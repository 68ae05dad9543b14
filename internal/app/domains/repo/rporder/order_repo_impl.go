package rporder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/entity"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// OrderRepositoryImpl 订单仓储实现（MySQL）
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

// Create 创建订单
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *etorder.Order) error {
	return r.db.WithContext(ctx).Create(toGormModel(order)).Error
}

// GetByID 根据内部ID查询订单
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, orderID string) (*etorder.Order, error) {
	var po entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.ErrOrderNotFound
		}
		return nil, err
	}
	return toDomainModel(&po), nil
}

// GetByMarketplaceNo 根据账号ID和闲鱼订单号查询（用于同步去重）
func (r *OrderRepositoryImpl) GetByMarketplaceNo(ctx context.Context, accountID int64, orderNo string) (*etorder.Order, error) {
	var po entity.Order
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND marketplace_order_no = ?", accountID, orderNo).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainModel(&po), nil
}

// Update 持久化订单可变字段
func (r *OrderRepositoryImpl) Update(ctx context.Context, order *etorder.Order) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":         string(order.Status),
			"card_group_id":  order.CardGroupID,
			"failure_reason": order.FailureReason,
			"item_title":     order.ItemTitle,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("update order failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errorx.ErrOrderNotFound
	}
	return nil
}

// List 分页查询订单列表
func (r *OrderRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]*etorder.Order, int64, error) {
	var total int64
	var pos []entity.Order

	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Offset(offset).Limit(filter.PageSize).Order("created_at DESC").Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*etorder.Order, 0, len(pos))
	for i := range pos {
		orders = append(orders, toDomainModel(&pos[i]))
	}

	return orders, total, nil
}

// toGormModel 领域对象转换为 GORM 模型
func toGormModel(order *etorder.Order) *entity.Order {
	return &entity.Order{
		ID:                 order.ID,
		AccountID:          order.AccountID,
		MarketplaceOrderNo: order.MarketplaceOrderNo,
		BuyerID:            order.BuyerID,
		ItemID:             order.ItemID,
		ItemTitle:          order.ItemTitle,
		ItemImage:          order.ItemImage,
		Amount:             order.Amount,
		Quantity:           order.Quantity,
		Status:             string(order.Status),
		CardGroupID:        order.CardGroupID,
		FailureReason:      order.FailureReason,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

// toDomainModel GORM 模型转换为领域对象
func toDomainModel(po *entity.Order) *etorder.Order {
	return &etorder.Order{
		ID:                 po.ID,
		AccountID:          po.AccountID,
		MarketplaceOrderNo: po.MarketplaceOrderNo,
		BuyerID:            po.BuyerID,
		ItemID:             po.ItemID,
		ItemTitle:          po.ItemTitle,
		ItemImage:          po.ItemImage,
		Amount:             po.Amount,
		Quantity:           po.Quantity,
		Status:             etorder.OrderStatus(po.Status),
		CardGroupID:        po.CardGroupID,
		FailureReason:      po.FailureReason,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
	}
}
