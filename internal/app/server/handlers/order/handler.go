package order

import (
	"context"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svfulfill"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svsync"
)

// ResultWaiter 发货结果推送等待（redis 订阅实现）
type ResultWaiter interface {
	WaitFulfillResult(ctx context.Context, orderID string, timeout time.Duration) (string, error)
}

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	orders  *mdorder.OrderModule
	fulfill *svfulfill.FulfillService
	sync    *svsync.SyncService
	results ResultWaiter
}

// NewOrderHandler 创建订单处理器实例
func NewOrderHandler(orders *mdorder.OrderModule, fulfill *svfulfill.FulfillService, sync *svsync.SyncService, results ResultWaiter) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		fulfill: fulfill,
		sync:    sync,
		results: results,
	}
}
