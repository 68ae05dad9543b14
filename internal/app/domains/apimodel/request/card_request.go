package request

// CreateCardGroupRequest 创建卡密组请求
type CreateCardGroupRequest struct {
	AccountID   int64  `json:"account_id" binding:"required" example:"1"`
	Name        string `json:"name" binding:"required" example:"视频会员月卡"`
	Kind        string `json:"kind" binding:"required,oneof=text image api data" example:"data"`
	Payload     string `json:"payload" example:"https://cards.example.com/pick"`
	Description string `json:"description" example:"月卡兑换码"`
	Enabled     *bool  `json:"enabled"`
}

// UpdateCardGroupRequest 更新卡密组请求
type UpdateCardGroupRequest struct {
	Name        string `json:"name" binding:"required" example:"视频会员月卡"`
	Payload     string `json:"payload"`
	Description string `json:"description"`
	Enabled     *bool  `json:"enabled"`
}

// ImportCardsRequest 批量导入卡密请求（每行一条）
type ImportCardsRequest struct {
	Content string `json:"content" binding:"required" example:"CARD-A\nCARD-B\nCARD-C"`
}
