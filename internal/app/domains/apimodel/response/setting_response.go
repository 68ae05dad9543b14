package response

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
)

// SettingsResponse 系统配置响应（API Key 脱敏）
type SettingsResponse struct {
	AIModel      string    `json:"ai_model"`
	AIBaseURL    string    `json:"ai_base_url"`
	AIAPIKeySet  bool      `json:"ai_api_key_set"`
	DefaultReply string    `json:"default_reply"`
	SMTPServer   string    `json:"smtp_server"`
	SMTPPort     int       `json:"smtp_port"`
	NotifyEmail  string    `json:"notify_email"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromSettings 系统配置转 DTO
func FromSettings(settings *etsetting.SystemSettings) *SettingsResponse {
	return &SettingsResponse{
		AIModel:      settings.AIModel,
		AIBaseURL:    settings.AIBaseURL,
		AIAPIKeySet:  settings.AIAPIKey != "",
		DefaultReply: settings.DefaultReply,
		SMTPServer:   settings.SMTPServer,
		SMTPPort:     settings.SMTPPort,
		NotifyEmail:  settings.NotifyEmail,
		UpdatedAt:    settings.UpdatedAt,
	}
}

// AccountResponse 账号响应（DTO）
type AccountResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromAccount 账号转 DTO
func FromAccount(account *etaccount.Account) *AccountResponse {
	return &AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Enabled:   account.Enabled,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// FromAccounts 账号列表转 DTO
func FromAccounts(accounts []*etaccount.Account) []*AccountResponse {
	out := make([]*AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, FromAccount(account))
	}
	return out
}
