package framework

import "time"

// Message 消息结构（框架内部流转）
type Message struct {
	ID       string // 消息 ID
	Queue    string // 队列名称
	Data     []byte // 原始 Job 数据
	Attempts int    // 剩余重试次数
}

// JobAction 消息处理后的队列动作
type JobAction int

const (
	// ActionAck 处理成功，确认删除
	ActionAck JobAction = iota
	// ActionRelease 可重试失败，延迟重新投递
	ActionRelease
	// ActionBury 不可重试失败，移入死信
	ActionBury
)

// JobResult 单条消息的处理结果
type JobResult struct {
	Action     JobAction
	RetryDelay time.Duration // 仅 Release 生效
}
