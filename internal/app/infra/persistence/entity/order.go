package entity

import (
	"time"
)

// Order 订单表
// (account_id, marketplace_order_no) 唯一，同步去重靠该约束兜底
type Order struct {
	ID                 string `gorm:"column:id;primaryKey;type:varchar(64)"`
	AccountID          int64  `gorm:"column:account_id;not null;index:idx_account_status;uniqueIndex:uk_account_order_no"`
	MarketplaceOrderNo string `gorm:"column:marketplace_order_no;type:varchar(128);not null;uniqueIndex:uk_account_order_no"`

	BuyerID   string `gorm:"column:buyer_id;type:varchar(128);not null"`
	ItemID    string `gorm:"column:item_id;type:varchar(128);index:idx_item"`
	ItemTitle string `gorm:"column:item_title;type:varchar(512);not null"`
	ItemImage string `gorm:"column:item_image;type:varchar(1024)"`
	Amount    int64  `gorm:"column:amount;not null;default:0"`
	Quantity  int    `gorm:"column:quantity;not null;default:1"`

	Status        string `gorm:"column:status;type:varchar(16);not null;default:'processing';index:idx_account_status"`
	CardGroupID   *int64 `gorm:"column:card_group_id"`
	FailureReason string `gorm:"column:failure_reason;type:varchar(512)"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
