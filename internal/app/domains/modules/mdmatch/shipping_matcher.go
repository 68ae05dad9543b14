package mdmatch

import (
	"strings"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
)

// MatchShipping 按商品标题选出最优发货规则
// 命中条件：规则启用且关键词为标题子串（大小写/全半角不敏感）
// 多条命中时 priority 小者优先，priority 相同取 id 小者；无命中返回 nil
// 纯函数：对同一快照与标题结果确定，不产生副作用
func MatchShipping(itemTitle string, rules []*etrule.ShippingRule) *etrule.ShippingRule {
	title := Normalize(itemTitle)

	var best *etrule.ShippingRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		keyword := Normalize(rule.ItemKeyword)
		if keyword == "" || !strings.Contains(title, keyword) {
			continue
		}
		if best == nil || less(rule, best) {
			best = rule
		}
	}
	return best
}

// less 发货规则排序：priority 升序，id 兜底
func less(a, b *etrule.ShippingRule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
