package request

// ListOrdersRequest 订单列表查询参数
type ListOrdersRequest struct {
	AccountID int64  `form:"account_id" example:"1"`
	Status    string `form:"status" example:"pending_ship"`
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"20"`
}

// ManualShipRequest 人工批量发货请求
type ManualShipRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1"`
	Strategy string   `json:"strategy" binding:"omitempty,oneof=auto_match" example:"auto_match"`
}

// MarketplaceEventRequest 市场侧状态事件请求
type MarketplaceEventRequest struct {
	Status string `json:"status" binding:"required,oneof=completed cancelled refunding" example:"cancelled"`
}
