package framework

import (
	"context"
	"time"
)

// MessageSource 消息源接口（适配不同 MQ）
type MessageSource interface {
	// Consume 消费消息（阻塞，直到拉取到消息或超时）
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack 确认消息（删除消息）
	Ack(queue string, jobID string) error

	// Release 释放消息，延迟后重新投递
	Release(msg *Message, delay time.Duration) error

	// Bury 埋葬消息（移入死信队列）
	Bury(msg *Message) error
}

// Logger 日志接口
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// Proc 业务处理函数类型
// 返回的 JobResult 决定消息的队列动作
type Proc func(ctx context.Context, msg *Message) *JobResult
