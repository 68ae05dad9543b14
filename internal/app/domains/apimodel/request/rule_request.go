package request

// UpsertShippingRuleRequest 新增/更新发货规则请求
type UpsertShippingRuleRequest struct {
	ID          int64  `json:"id" example:"0"`
	AccountID   int64  `json:"account_id" binding:"required" example:"1"`
	Name        string `json:"name" binding:"required" example:"视频会员自动发货"`
	Priority    int    `json:"priority" binding:"min=0" example:"10"`
	ItemKeyword string `json:"item_keyword" binding:"required" example:"视频会员"`
	CardGroupID int64  `json:"card_group_id" binding:"required" example:"100"`
	Enabled     *bool  `json:"enabled"`
}

// UpsertReplyRuleRequest 新增/更新回复规则请求
type UpsertReplyRuleRequest struct {
	ID           int64  `json:"id" example:"0"`
	AccountID    int64  `json:"account_id" binding:"required" example:"1"`
	Keyword      string `json:"keyword" binding:"required" example:"退款"`
	MatchType    string `json:"match_type" binding:"required,oneof=exact fuzzy" example:"fuzzy"`
	ReplyContent string `json:"reply_content" binding:"required" example:"已收到您的退款申请"`
	Priority     int    `json:"priority" binding:"min=0" example:"10"`
	Enabled      *bool  `json:"enabled"`
}
