package lmstfy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"

	"github.com/88lin/xianyu-super-butler/internal/framework"
	"github.com/88lin/xianyu-super-butler/internal/jobs"
)

// 默认投递参数
const (
	defaultJobTTL   = uint32(24 * 3600) // 任务存活 24h
	defaultJobTries = uint16(3)         // 服务端投递次数上限
)

// Client Lmstfy 客户端封装
// 同时承担两个角色：apiserver 侧的发货任务入队，worker 侧的消息源
type Client struct {
	cli          *client.LmstfyClient
	namespace    string
	fulfillQueue string
}

// NewClient 创建 Lmstfy 客户端
func NewClient(host string, port int, namespace, token, fulfillQueue string) (*Client, error) {
	cli := client.NewLmstfyClient(host, port, namespace, token)
	return &Client{
		cli:          cli,
		namespace:    namespace,
		fulfillQueue: fulfillQueue,
	}, nil
}

// EnqueueFulfill 投递发货任务（实现 svsync.JobEnqueuer 接口）
func (c *Client) EnqueueFulfill(ctx context.Context, orderID string) error {
	envelope := &jobs.Envelope{
		ActionType: jobs.ActionOrderFulfill,
		OrderID:    orderID,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal fulfill job failed: %w", err)
	}
	return c.Publish(c.fulfillQueue, data, defaultJobTTL, 0)
}

// Consume 消费消息（实现 MessageSource 接口）
func (c *Client) Consume(queue string, timeout time.Duration, ttr time.Duration) (*framework.Message, error) {
	timeoutSec := uint32(timeout.Seconds())
	ttrSec := uint32(ttr.Seconds())

	job, err := c.cli.Consume(queue, timeoutSec, ttrSec)
	if err != nil {
		return nil, fmt.Errorf("lmstfy consume failed: %w", err)
	}

	// 超时未拉到消息
	if job == nil {
		return nil, nil
	}

	return &framework.Message{
		ID:    job.ID,
		Queue: job.Queue,
		Data:  job.Data,
	}, nil
}

// Ack 确认消息（实现 MessageSource 接口）
func (c *Client) Ack(queue string, jobID string) error {
	if err := c.cli.Ack(queue, jobID); err != nil {
		return fmt.Errorf("lmstfy ack failed: %w", err)
	}
	return nil
}

// Release 延迟重投：重新发布同等内容后确认原消息
func (c *Client) Release(msg *framework.Message, delay time.Duration) error {
	if err := c.Publish(msg.Queue, msg.Data, defaultJobTTL, uint32(delay.Seconds())); err != nil {
		return err
	}
	return c.Ack(msg.Queue, msg.ID)
}

// Bury 移入死信队列（<queue>_dead）后确认原消息
func (c *Client) Bury(msg *framework.Message) error {
	deadQueue := msg.Queue + "_dead"
	if err := c.Publish(deadQueue, msg.Data, defaultJobTTL, 0); err != nil {
		return err
	}
	return c.Ack(msg.Queue, msg.ID)
}

// Publish 发布消息
func (c *Client) Publish(queue string, data []byte, ttl, delay uint32) error {
	_, err := c.cli.Publish(queue, data, ttl, defaultJobTries, delay)
	if err != nil {
		return fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return nil
}
