package jobs

import (
	"context"
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etorder"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svfulfill"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/framework"
)

// 可重试失败的重投延迟
const releaseDelay = 30 * time.Second

// Handler 单类任务的处理函数
type Handler func(ctx context.Context, envelope *Envelope) error

// NewHandlerMap 构建路由表（ActionType → Handler 映射）
func NewHandlerMap(fulfill *svfulfill.FulfillService) map[string]Handler {
	return map[string]Handler{
		ActionOrderFulfill: func(ctx context.Context, envelope *Envelope) error {
			return fulfill.OnOrderObserved(ctx, envelope.OrderID)
		},
		ActionMarketplaceEvent: func(ctx context.Context, envelope *Envelope) error {
			return fulfill.OnMarketplaceEvent(ctx, envelope.OrderID, etorder.OrderStatus(envelope.Status))
		},
	}
}

// GetProcess 返回核心处理函数（注入到 Processor）
// 解析失败和未知任务类型直接埋葬；业务错误按可重试性决定 Release/Bury
func GetProcess(log logger.Logger, handlers map[string]Handler) framework.Proc {
	return func(ctx context.Context, msg *framework.Message) *framework.JobResult {
		startTime := time.Now()

		envelope, err := ParseEnvelope(msg.Data)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parse job failed: %v", err)
			return &framework.JobResult{Action: framework.ActionBury}
		}

		ctx = context.WithValue(ctx, logger.KeyTraceID, envelope.RequestID)
		ctx = context.WithValue(ctx, logger.KeyActionType, envelope.ActionType)
		ctx = context.WithValue(ctx, logger.KeyOrderID, envelope.OrderID)

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s",
			envelope.ActionType, envelope.RequestID)

		handler, ok := handlers[envelope.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", envelope.ActionType)
			return &framework.JobResult{Action: framework.ActionBury}
		}

		// 捕获 panic，单条消息异常不拖垮处理协程
		var result *framework.JobResult
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					result = &framework.JobResult{Action: framework.ActionBury}
				}
			}()
			result = report(ctx, handler(ctx, envelope), log)
		}()

		log.Infof(ctx, "[GetProcess] Processing complete: action=%d, duration=%v",
			result.Action, time.Since(startTime))
		return result
	}
}

// report 根据处理错误生成队列动作
func report(ctx context.Context, err error, log logger.Logger) *framework.JobResult {
	if err == nil {
		return &framework.JobResult{Action: framework.ActionAck}
	}
	if errorx.IsRetryable(err) {
		log.Warnf(ctx, "[GetProcess] retryable failure, releasing: %v", err)
		return &framework.JobResult{Action: framework.ActionRelease, RetryDelay: releaseDelay}
	}
	log.Errorf(ctx, "[GetProcess] permanent failure, burying: %v", err)
	return &framework.JobResult{Action: framework.ActionBury}
}
