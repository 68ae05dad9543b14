package entity

import "time"

// SystemSettings 系统配置表（单行，主键固定为 1）
type SystemSettings struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	AIModel      string `gorm:"column:ai_model;type:varchar(64)"`
	AIBaseURL    string `gorm:"column:ai_base_url;type:varchar(512)"`
	AIAPIKey     string `gorm:"column:ai_api_key;type:varchar(512)"`
	DefaultReply string `gorm:"column:default_reply;type:text"`
	SMTPServer   string `gorm:"column:smtp_server;type:varchar(255)"`
	SMTPPort     int    `gorm:"column:smtp_port;not null;default:0"`
	NotifyEmail  string `gorm:"column:notify_email;type:varchar(255)"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (SystemSettings) TableName() string {
	return "system_settings"
}

// Account 闲鱼账号表
type Account struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name    string `gorm:"column:name;type:varchar(255);not null;uniqueIndex:uk_name"`
	Enabled bool   `gorm:"column:enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}
