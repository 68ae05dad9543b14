package entity

import (
	"time"

	"gorm.io/datatypes"
)

// CardGroup 卡密组表
type CardGroup struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	AccountID   int64  `gorm:"column:account_id;not null;index:idx_account"`
	Name        string `gorm:"column:name;type:varchar(255);not null"`
	Kind        string `gorm:"column:kind;type:varchar(16);not null"`
	Payload     string `gorm:"column:payload;type:text"`
	Description string `gorm:"column:description;type:varchar(512)"`
	Enabled     bool   `gorm:"column:enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (CardGroup) TableName() string {
	return "card_groups"
}

// CardInstance 卡密实例表（仅 data 组）
// consumed_by 为空串表示空闲；按主键升序即插入顺序消耗
type CardInstance struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	GroupID    int64      `gorm:"column:group_id;not null;index:idx_group_consumed"`
	Payload    string     `gorm:"column:payload;type:text;not null"`
	ConsumedBy string     `gorm:"column:consumed_by;type:varchar(64);not null;default:'';index:idx_group_consumed"`
	ConsumedAt *time.Time `gorm:"column:consumed_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (CardInstance) TableName() string {
	return "card_instances"
}

// AllocationRecord 分配记录表
// order_id 唯一约束保证同一订单至多一条，幂等重放直接命中
type AllocationRecord struct {
	OrderID    string         `gorm:"column:order_id;primaryKey;type:varchar(64)"`
	GroupID    int64          `gorm:"column:group_id;not null;index:idx_group"`
	InstanceID *int64         `gorm:"column:instance_id"`
	Payload    string         `gorm:"column:payload;type:text;not null"`
	Extra      datatypes.JSON `gorm:"column:extra;type:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (AllocationRecord) TableName() string {
	return "allocation_records"
}
