package request

// InboundMessageRequest 买家消息回复解析请求（桥接端回调）
type InboundMessageRequest struct {
	AccountID int64  `json:"account_id" binding:"required" example:"1"`
	BuyerID   string `json:"buyer_id" binding:"required" example:"buyer_8801"`
	Message   string `json:"message" binding:"required" example:"发货多久到"`
}
