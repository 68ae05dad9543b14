package response

import (
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svreply"
)

// ReplyResponse 消息回复解析结果
type ReplyResponse struct {
	Content string `json:"content"`
	Source  string `json:"source"` // rule / default / ai / none
	RuleID  int64  `json:"rule_id,omitempty"`
}

// FromReply 回复结果转 DTO
func FromReply(reply *svreply.Reply) *ReplyResponse {
	return &ReplyResponse{
		Content: reply.Content,
		Source:  reply.Source,
		RuleID:  reply.RuleID,
	}
}
