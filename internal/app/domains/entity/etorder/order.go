package etorder

import (
	"errors"
	"fmt"
	"time"
)

// 错误定义
var (
	ErrInvalidOrderID     = errors.New("order ID cannot be empty")
	ErrInvalidAccountID   = errors.New("invalid account ID")
	ErrInvalidOrderNo     = errors.New("marketplace order number cannot be empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderNotEligible   = errors.New("order not eligible for fulfillment")
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusProcessing  OrderStatus = "processing"   // 已同步，等待规则匹配
	StatusPendingShip OrderStatus = "pending_ship" // 已匹配规则，等待发货（或发货失败等待人工）
	StatusShipped     OrderStatus = "shipped"      // 卡密已分配并交付
	StatusCompleted   OrderStatus = "completed"    // 买家确认收货
	StatusCancelled   OrderStatus = "cancelled"    // 市场侧取消
	StatusRefunding   OrderStatus = "refunding"    // 市场侧售后中
)

// Order 订单聚合根（领域对象）
// 状态只允许编排器修改；同步创建，永不删除（审计保留）
type Order struct {
	ID                 string      // 内部订单ID (UUID)
	AccountID          int64       // 所属闲鱼账号
	MarketplaceOrderNo string      // 闲鱼订单号
	BuyerID            string      // 买家ID
	ItemID             string      // 商品ID
	ItemTitle          string      // 商品标题（规则匹配输入）
	ItemImage          string      // 商品主图
	Amount             int64       // 实付金额，单位分
	Quantity           int         // 购买数量
	Status             OrderStatus // 当前状态
	CardGroupID        *int64      // 已分配卡密组（未分配为 nil）
	FailureReason      string      // 最近一次发货失败原因（成功后清空）
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewOrder 创建订单（工厂方法），初始状态 processing
func NewOrder(id string, accountID int64, marketplaceOrderNo, buyerID, itemID, itemTitle string) (*Order, error) {
	if id == "" {
		return nil, ErrInvalidOrderID
	}
	if accountID <= 0 {
		return nil, ErrInvalidAccountID
	}
	if marketplaceOrderNo == "" {
		return nil, ErrInvalidOrderNo
	}

	now := time.Now()
	return &Order{
		ID:                 id,
		AccountID:          accountID,
		MarketplaceOrderNo: marketplaceOrderNo,
		BuyerID:            buyerID,
		ItemID:             itemID,
		ItemTitle:          itemTitle,
		Quantity:           1,
		Status:             StatusProcessing,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// EligibleForAutoFulfill 是否可进入自动发货流程
func (o *Order) EligibleForAutoFulfill() bool {
	return o.Status == StatusProcessing
}

// EligibleForManualShip 是否可人工触发重新发货
func (o *Order) EligibleForManualShip() bool {
	return o.Status == StatusPendingShip
}

// MarkPendingShip 规则命中，进入待发货
func (o *Order) MarkPendingShip(groupID int64) error {
	if o.Status != StatusProcessing && o.Status != StatusPendingShip {
		return fmt.Errorf("%w: %s -> pending_ship", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusPendingShip
	o.CardGroupID = &groupID
	o.UpdatedAt = time.Now()
	return nil
}

// MarkShipped 分配成功，已交付
func (o *Order) MarkShipped() error {
	if o.Status != StatusPendingShip {
		return fmt.Errorf("%w: %s -> shipped", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusShipped
	o.FailureReason = ""
	o.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted 买家确认收货
func (o *Order) MarkCompleted() error {
	if o.Status != StatusShipped {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusCompleted
	o.UpdatedAt = time.Now()
	return nil
}

// ApplyMarketplaceStatus 应用市场侧事件（取消/售后）
// completed 之前任意状态都可能被市场侧事件打断
func (o *Order) ApplyMarketplaceStatus(status OrderStatus) error {
	if status != StatusCancelled && status != StatusRefunding {
		return fmt.Errorf("%w: marketplace event %s", ErrInvalidTransition, status)
	}
	if o.Status == StatusCompleted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// RecordFailure 记录发货失败原因（保持 pending_ship，等待重试或人工）
func (o *Order) RecordFailure(reason string) {
	o.FailureReason = reason
	o.UpdatedAt = time.Now()
}
