package rpaccount

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
)

// AccountRepository 账号仓储接口
type AccountRepository interface {
	// Create 创建账号
	Create(ctx context.Context, account *etaccount.Account) error

	// GetByID 根据ID查询账号
	GetByID(ctx context.Context, accountID int64) (*etaccount.Account, error)

	// List 查询全部账号
	List(ctx context.Context) ([]*etaccount.Account, error)

	// ListEnabled 查询启用账号（订单同步遍历）
	ListEnabled(ctx context.Context) ([]*etaccount.Account, error)

	// Exists 检查账号是否存在
	Exists(ctx context.Context, accountID int64) (bool, error)
}
