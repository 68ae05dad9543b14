package response

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
)

// ShippingRuleResponse 发货规则响应（DTO）
type ShippingRuleResponse struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Name        string    `json:"name"`
	Priority    int       `json:"priority"`
	ItemKeyword string    `json:"item_keyword"`
	CardGroupID int64     `json:"card_group_id"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromShippingRule 发货规则转 DTO
func FromShippingRule(rule *etrule.ShippingRule) *ShippingRuleResponse {
	return &ShippingRuleResponse{
		ID:          rule.ID,
		AccountID:   rule.AccountID,
		Name:        rule.Name,
		Priority:    rule.Priority,
		ItemKeyword: rule.ItemKeyword,
		CardGroupID: rule.CardGroupID,
		Enabled:     rule.Enabled,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

// FromShippingRules 发货规则列表转 DTO
func FromShippingRules(rules []*etrule.ShippingRule) []*ShippingRuleResponse {
	out := make([]*ShippingRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, FromShippingRule(rule))
	}
	return out
}

// ReplyRuleResponse 回复规则响应（DTO）
type ReplyRuleResponse struct {
	ID           int64     `json:"id"`
	AccountID    int64     `json:"account_id"`
	Keyword      string    `json:"keyword"`
	MatchType    string    `json:"match_type"`
	ReplyContent string    `json:"reply_content"`
	Priority     int       `json:"priority"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromReplyRule 回复规则转 DTO
func FromReplyRule(rule *etrule.ReplyRule) *ReplyRuleResponse {
	return &ReplyRuleResponse{
		ID:           rule.ID,
		AccountID:    rule.AccountID,
		Keyword:      rule.Keyword,
		MatchType:    string(rule.MatchType),
		ReplyContent: rule.ReplyContent,
		Priority:     rule.Priority,
		Enabled:      rule.Enabled,
		CreatedAt:    rule.CreatedAt,
		UpdatedAt:    rule.UpdatedAt,
	}
}

// FromReplyRules 回复规则列表转 DTO
func FromReplyRules(rules []*etrule.ReplyRule) []*ReplyRuleResponse {
	out := make([]*ReplyRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, FromReplyRule(rule))
	}
	return out
}

// RuleMutationResponse 规则写入响应（返回快照版本）
type RuleMutationResponse struct {
	Version int64 `json:"version"`
	RuleID  int64 `json:"rule_id,omitempty"`
}
