package etcard

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// Kind 卡密组内容类型（封闭集合，分配器必须穷举处理）
type Kind string

const (
	KindText  Kind = "text"  // 固定文本，可复用
	KindImage Kind = "image" // 图片链接，可复用
	KindAPI   Kind = "api"   // 每次分配调用外部接口取卡
	KindData  Kind = "data"  // 卡密序列，逐条消耗
)

// Valid 判断内容类型是否合法
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindAPI, KindData:
		return true
	}
	return false
}

// CardGroup 卡密组（发货规则的分配目标）
// text/image 组 Payload 为静态内容；api 组 Payload 为取卡接口地址；
// data 组内容在 CardInstance 序列中
type CardGroup struct {
	ID          int64
	AccountID   int64
	Name        string
	Kind        Kind
	Payload     string
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate 写入时校验
func (g *CardGroup) Validate() error {
	if g.Name == "" {
		return errorx.NewValidation("name", "cannot be empty")
	}
	if !g.Kind.Valid() {
		return errorx.NewValidation("kind", "must be one of text/image/api/data")
	}
	if g.Kind != KindData && g.Payload == "" {
		return errorx.NewValidation("payload", "required for text/image/api groups")
	}
	return nil
}

// CardInstance data 组的单条卡密
// 严格按插入顺序（ID 递增）消耗；一经消耗永久绑定到唯一订单
type CardInstance struct {
	ID         int64
	GroupID    int64
	Payload    string
	ConsumedBy string // 消耗订单ID，空串表示空闲
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Free 是否空闲
func (i *CardInstance) Free() bool {
	return i.ConsumedBy == ""
}

// AllocationRecord 分配记录：订单到卡密内容的幂等绑定
// 每个订单至多一条；先落库后上报，崩溃后重读记录而非重新分配
type AllocationRecord struct {
	OrderID    string
	GroupID    int64
	InstanceID *int64 // 仅 data 组有值
	Payload    string // 已解析的交付内容（api 组缓存外部调用结果）
	CreatedAt  time.Time
}

// GroupStock 卡密组库存统计（控制台列表页展示）
type GroupStock struct {
	GroupID  int64
	Free     int64
	Consumed int64
}
