package rpsetting

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/entity"
)

// 单行配置固定主键
const settingsRowID = 1

// SettingRepositoryImpl 系统配置仓储实现（MySQL）
type SettingRepositoryImpl struct {
	db *gorm.DB
}

// NewSettingRepository 创建系统配置仓储实例
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &SettingRepositoryImpl{db: db}
}

// Get 读取系统配置
func (r *SettingRepositoryImpl) Get(ctx context.Context) (*etsetting.SystemSettings, error) {
	var po entity.SystemSettings
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &etsetting.SystemSettings{}, nil
		}
		return nil, err
	}

	return &etsetting.SystemSettings{
		AIModel:      po.AIModel,
		AIBaseURL:    po.AIBaseURL,
		AIAPIKey:     po.AIAPIKey,
		DefaultReply: po.DefaultReply,
		SMTPServer:   po.SMTPServer,
		SMTPPort:     po.SMTPPort,
		NotifyEmail:  po.NotifyEmail,
		UpdatedAt:    po.UpdatedAt,
	}, nil
}

// Update 整体覆盖系统配置
func (r *SettingRepositoryImpl) Update(ctx context.Context, settings *etsetting.SystemSettings) error {
	po := &entity.SystemSettings{
		ID:           settingsRowID,
		AIModel:      settings.AIModel,
		AIBaseURL:    settings.AIBaseURL,
		AIAPIKey:     settings.AIAPIKey,
		DefaultReply: settings.DefaultReply,
		SMTPServer:   settings.SMTPServer,
		SMTPPort:     settings.SMTPPort,
		NotifyEmail:  settings.NotifyEmail,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(po).Error
}
