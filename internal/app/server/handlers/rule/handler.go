package rule

import (
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
)

// RuleHandler 规则 HTTP 处理器（发货规则 + 回复规则）
type RuleHandler struct {
	rules *mdrule.RuleModule
}

// NewRuleHandler 创建规则处理器实例
func NewRuleHandler(rules *mdrule.RuleModule) *RuleHandler {
	return &RuleHandler{rules: rules}
}
