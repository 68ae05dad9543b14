package etrule

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// ShippingRule 自动发货规则
// 订单商品标题包含 ItemKeyword 时命中，Priority 数值小者优先
type ShippingRule struct {
	ID          int64
	AccountID   int64
	Name        string
	Priority    int
	ItemKeyword string
	CardGroupID int64
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate 写入时校验
func (r *ShippingRule) Validate() error {
	if r.Name == "" {
		return errorx.NewValidation("name", "cannot be empty")
	}
	if r.ItemKeyword == "" {
		return errorx.NewValidation("item_keyword", "cannot be empty")
	}
	if r.Priority < 0 {
		return errorx.NewValidation("priority", "must be non-negative")
	}
	if r.CardGroupID <= 0 {
		return errorx.NewValidation("card_group_id", "must reference a card group")
	}
	return nil
}

// MatchType 回复规则匹配方式
type MatchType string

const (
	MatchExact MatchType = "exact" // 消息与关键词完全一致
	MatchFuzzy MatchType = "fuzzy" // 消息包含关键词（忽略大小写）
)

// Valid 判断匹配方式是否合法
func (m MatchType) Valid() bool {
	return m == MatchExact || m == MatchFuzzy
}

// ReplyRule 关键词自动回复规则（按账号维度配置）
type ReplyRule struct {
	ID           int64
	AccountID    int64
	Keyword      string
	MatchType    MatchType
	ReplyContent string
	Priority     int
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate 写入时校验
func (r *ReplyRule) Validate() error {
	if r.Keyword == "" {
		return errorx.NewValidation("keyword", "cannot be empty")
	}
	if !r.MatchType.Valid() {
		return errorx.NewValidation("match_type", "must be exact or fuzzy")
	}
	if r.ReplyContent == "" {
		return errorx.NewValidation("reply_content", "cannot be empty")
	}
	if r.Priority < 0 {
		return errorx.NewValidation("priority", "must be non-negative")
	}
	return nil
}
