package etsetting

import "time"

// SystemSettings 全局系统配置（单行）
// AI 用于无规则命中时的兜底回复，SMTP 用于发货失败的运营通知
type SystemSettings struct {
	AIModel      string
	AIBaseURL    string
	AIAPIKey     string
	DefaultReply string
	SMTPServer   string
	SMTPPort     int
	NotifyEmail  string
	UpdatedAt    time.Time
}
