package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 广播频道
const (
	orderEventsChannel  = "order_events"     // 全量订单事件流（控制台列表刷新）
	fulfillResultPrefix = "fulfill:result:"  // 单订单发货结果（Smart Wait 订阅）
	ruleEventsChannel   = "rule_events"      // 规则变更通知（跨进程缓存失效）
)

// PubSubClient Redis Pub/Sub 客户端封装
type PubSubClient struct {
	rdb *redis.Client
}

// NewPubSubClient 创建 Pub/Sub 客户端，支持密码认证
func NewPubSubClient(addr, password string, db int) (*PubSubClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &PubSubClient{rdb: rdb}, nil
}

// fulfillResultPayload 发货结果消息体
type fulfillResultPayload struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
	Time    int64  `json:"time"`
}

// PublishFulfillResult 广播发货结果（实现 svfulfill.EventPublisher 接口）
// 同时推送到订单专属频道和全量事件流
func (c *PubSubClient) PublishFulfillResult(ctx context.Context, orderID string, success bool, detail string) error {
	payload := fulfillResultPayload{
		OrderID: orderID,
		Success: success,
		Detail:  detail,
		Time:    time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fulfill result failed: %w", err)
	}

	if err := c.Publish(ctx, fulfillResultPrefix+orderID, string(data)); err != nil {
		return err
	}
	return c.Publish(ctx, orderEventsChannel, string(data))
}

// WaitFulfillResult 订阅订单发货结果频道并等待推送，支持超时控制
// 用于 Smart Wait：人工发货接口同步等待 worker 的处理结果
func (c *PubSubClient) WaitFulfillResult(ctx context.Context, orderID string, timeout time.Duration) (string, error) {
	sub := c.rdb.Subscribe(ctx, fulfillResultPrefix+orderID)
	defer sub.Close()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case msg := <-sub.Channel():
		return msg.Payload, nil
	case <-timeoutCtx.Done():
		return "", timeoutCtx.Err()
	}
}

// ruleChangePayload 规则变更消息体
type ruleChangePayload struct {
	AccountID int64 `json:"account_id"`
	Time      int64 `json:"time"`
}

// PublishRuleChange 广播账号规则变更（实现 mdrule.RuleEventPublisher 接口）
// apiserver 写入规则后发布，worker 订阅后失效本进程的缓存快照
func (c *PubSubClient) PublishRuleChange(ctx context.Context, accountID int64) error {
	data, err := json.Marshal(ruleChangePayload{AccountID: accountID, Time: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal rule change failed: %w", err)
	}
	return c.Publish(ctx, ruleEventsChannel, string(data))
}

// SubscribeRuleChanges 订阅规则变更通知并逐条回调，阻塞直到 ctx 取消
// 消息解析失败只跳过该条，订阅循环不中断
func (c *PubSubClient) SubscribeRuleChanges(ctx context.Context, handler func(accountID int64)) error {
	sub := c.rdb.Subscribe(ctx, ruleEventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var payload ruleChangePayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				continue
			}
			handler(payload.AccountID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Publish 向指定 channel 发布消息
func (c *PubSubClient) Publish(ctx context.Context, channel string, message string) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Close 关闭连接
func (c *PubSubClient) Close() error {
	return c.rdb.Close()
}
