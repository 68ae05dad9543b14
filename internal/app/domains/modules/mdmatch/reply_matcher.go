package mdmatch

import (
	"strings"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
)

// MatchReply 按买家消息选出最优回复规则
// exact 规则要求归一化后全文相等，fuzzy 规则要求关键词为消息子串
// exact 命中严格优先于 fuzzy，同档内 priority 小者优先、id 兜底
// 纯函数，无命中返回 nil，由上层决定走默认回复或 AI 兜底
func MatchReply(message string, rules []*etrule.ReplyRule) *etrule.ReplyRule {
	text := Normalize(message)

	var best *etrule.ReplyRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		keyword := Normalize(rule.Keyword)
		if keyword == "" {
			continue
		}

		switch rule.MatchType {
		case etrule.MatchExact:
			if text != keyword {
				continue
			}
		case etrule.MatchFuzzy:
			if !strings.Contains(text, keyword) {
				continue
			}
		default:
			continue
		}

		if best == nil || replyLess(rule, best) {
			best = rule
		}
	}
	return best
}

// replyLess 回复规则排序：exact 先于 fuzzy，再按 priority 升序、id 兜底
func replyLess(a, b *etrule.ReplyRule) bool {
	if a.MatchType != b.MatchType {
		return a.MatchType == etrule.MatchExact
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
