package entity

import "time"

// ShippingRule 自动发货规则表
type ShippingRule struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	AccountID   int64  `gorm:"column:account_id;not null;index:idx_account_enabled"`
	Name        string `gorm:"column:name;type:varchar(255);not null"`
	Priority    int    `gorm:"column:priority;not null;default:0"`
	ItemKeyword string `gorm:"column:item_keyword;type:varchar(255);not null"`
	CardGroupID int64  `gorm:"column:card_group_id;not null"`
	Enabled     bool   `gorm:"column:enabled;not null;default:true;index:idx_account_enabled"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (ShippingRule) TableName() string {
	return "shipping_rules"
}

// ReplyRule 关键词回复规则表
type ReplyRule struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	AccountID    int64  `gorm:"column:account_id;not null;index:idx_account_enabled"`
	Keyword      string `gorm:"column:keyword;type:varchar(255);not null"`
	MatchType    string `gorm:"column:match_type;type:varchar(16);not null;default:'fuzzy'"`
	ReplyContent string `gorm:"column:reply_content;type:text;not null"`
	Priority     int    `gorm:"column:priority;not null;default:0"`
	Enabled      bool   `gorm:"column:enabled;not null;default:true;index:idx_account_enabled"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (ReplyRule) TableName() string {
	return "reply_rules"
}
