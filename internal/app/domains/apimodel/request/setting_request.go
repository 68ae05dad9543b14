package request

// UpdateSettingsRequest 更新系统配置请求（整体覆盖）
type UpdateSettingsRequest struct {
	AIModel      string `json:"ai_model" example:"qwen-turbo"`
	AIBaseURL    string `json:"ai_base_url" example:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	AIAPIKey     string `json:"ai_api_key"`
	DefaultReply string `json:"default_reply" example:"您好，看到消息会尽快回复"`
	SMTPServer   string `json:"smtp_server" example:"smtp.example.com"`
	SMTPPort     int    `json:"smtp_port" binding:"min=0,max=65535" example:"465"`
	NotifyEmail  string `json:"notify_email" binding:"omitempty,email" example:"ops@example.com"`
}

// CreateAccountRequest 创建账号请求
type CreateAccountRequest struct {
	Name    string `json:"name" binding:"required" example:"主力闲鱼号"`
	Enabled *bool  `json:"enabled"`
}
