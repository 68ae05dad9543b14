package response

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svfulfill"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svsync"
)

// OrderResponse 订单响应（DTO）
type OrderResponse struct {
	ID                 string    `json:"id"`
	AccountID          int64     `json:"account_id"`
	MarketplaceOrderNo string    `json:"marketplace_order_no"`
	BuyerID            string    `json:"buyer_id"`
	ItemID             string    `json:"item_id"`
	ItemTitle          string    `json:"item_title"`
	ItemImage          string    `json:"item_image,omitempty"`
	Amount             int64     `json:"amount"`
	Quantity           int       `json:"quantity"`
	Status             string    `json:"status"`
	CardGroupID        *int64    `json:"card_group_id,omitempty"`
	FailureReason      string    `json:"failure_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FromOrderEntity 领域订单转 DTO
func FromOrderEntity(order *etorder.Order) *OrderResponse {
	return &OrderResponse{
		ID:                 order.ID,
		AccountID:          order.AccountID,
		MarketplaceOrderNo: order.MarketplaceOrderNo,
		BuyerID:            order.BuyerID,
		ItemID:             order.ItemID,
		ItemTitle:          order.ItemTitle,
		ItemImage:          order.ItemImage,
		Amount:             order.Amount,
		Quantity:           order.Quantity,
		Status:             string(order.Status),
		CardGroupID:        order.CardGroupID,
		FailureReason:      order.FailureReason,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

// OrderListResponse 订单列表响应
type OrderListResponse struct {
	Items      []*OrderResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int64            `json:"total_pages"`
}

// FromListResult 列表查询结果转 DTO
func FromListResult(result *mdorder.ListResult) *OrderListResponse {
	items := make([]*OrderResponse, 0, len(result.Orders))
	for _, order := range result.Orders {
		items = append(items, FromOrderEntity(order))
	}
	return &OrderListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}

// ShipResultResponse 人工发货单条结果
type ShipResultResponse struct {
	OrderID string `json:"order_id"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// FromShipResults 人工发货结果转 DTO
func FromShipResults(results []svfulfill.ShipResult) []*ShipResultResponse {
	out := make([]*ShipResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, &ShipResultResponse{
			OrderID: r.OrderID,
			Outcome: r.Outcome,
			Reason:  r.Reason,
		})
	}
	return out
}

// SyncResultResponse 订单同步结果
type SyncResultResponse struct {
	Accounts int `json:"accounts"`
	Fetched  int `json:"fetched"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
}

// FromSyncResult 同步结果转 DTO
func FromSyncResult(result *svsync.SyncResult) *SyncResultResponse {
	return &SyncResultResponse{
		Accounts: result.Accounts,
		Fetched:  result.Fetched,
		Created:  result.Created,
		Skipped:  result.Skipped,
	}
}
