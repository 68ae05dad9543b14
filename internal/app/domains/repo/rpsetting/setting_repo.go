package rpsetting

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
)

// SettingRepository 系统配置仓储接口
type SettingRepository interface {
	// Get 读取系统配置，首次读取返回零值配置
	Get(ctx context.Context) (*etsetting.SystemSettings, error)

	// Update 整体覆盖系统配置
	Update(ctx context.Context, settings *etsetting.SystemSettings) error
}
