package response

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
)

// CardGroupResponse 卡密组响应（DTO）
type CardGroupResponse struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Payload     string    `json:"payload,omitempty"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Free        int64     `json:"free"`     // data 组空闲库存
	Consumed    int64     `json:"consumed"` // data 组已消耗
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromCardGroup 卡密组转 DTO
func FromCardGroup(group *etcard.CardGroup, stock *etcard.GroupStock) *CardGroupResponse {
	resp := &CardGroupResponse{
		ID:          group.ID,
		AccountID:   group.AccountID,
		Name:        group.Name,
		Kind:        string(group.Kind),
		Payload:     group.Payload,
		Description: group.Description,
		Enabled:     group.Enabled,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
	if stock != nil {
		resp.Free = stock.Free
		resp.Consumed = stock.Consumed
	}
	return resp
}

// ImportCardsResponse 批量导入结果
type ImportCardsResponse struct {
	Imported int `json:"imported"`
}
