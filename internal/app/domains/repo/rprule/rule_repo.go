package rprule

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
)

// RuleRepository 规则仓储接口
// 只负责持久化；快照与版本语义在 mdrule 模块层
type RuleRepository interface {
	// ListShipping 查询账号下全部发货规则，accountID 为 0 表示全部
	ListShipping(ctx context.Context, accountID int64) ([]*etrule.ShippingRule, error)

	// UpsertShipping 新增或更新发货规则
	UpsertShipping(ctx context.Context, rule *etrule.ShippingRule) error

	// DeleteShipping 删除发货规则，未找到返回 errorx.ErrRuleNotFound
	DeleteShipping(ctx context.Context, ruleID int64) error

	// ListReply 查询账号下全部回复规则
	ListReply(ctx context.Context, accountID int64) ([]*etrule.ReplyRule, error)

	// UpsertReply 新增或更新回复规则
	UpsertReply(ctx context.Context, rule *etrule.ReplyRule) error

	// DeleteReply 删除回复规则
	DeleteReply(ctx context.Context, ruleID int64) error
}
