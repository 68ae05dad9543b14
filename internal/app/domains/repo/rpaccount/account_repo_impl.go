package rpaccount

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/entity"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// AccountRepositoryImpl 账号仓储实现（MySQL）
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓储实例
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create 创建账号
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *etaccount.Account) error {
	now := time.Now()
	po := &entity.Account{
		Name:      account.Name,
		Enabled:   account.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return err
	}
	account.ID = po.ID
	account.CreatedAt = po.CreatedAt
	account.UpdatedAt = po.UpdatedAt
	return nil
}

// GetByID 根据ID查询账号
func (r *AccountRepositoryImpl) GetByID(ctx context.Context, accountID int64) (*etaccount.Account, error) {
	var po entity.Account
	err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.NewBusinessError(404, "account not found")
		}
		return nil, err
	}
	return toDomain(&po), nil
}

// List 查询全部账号
func (r *AccountRepositoryImpl) List(ctx context.Context) ([]*etaccount.Account, error) {
	return r.list(ctx, false)
}

// ListEnabled 查询启用账号
func (r *AccountRepositoryImpl) ListEnabled(ctx context.Context) ([]*etaccount.Account, error) {
	return r.list(ctx, true)
}

func (r *AccountRepositoryImpl) list(ctx context.Context, enabledOnly bool) ([]*etaccount.Account, error) {
	var pos []entity.Account
	query := r.db.WithContext(ctx).Model(&entity.Account{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Order("id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}

	accounts := make([]*etaccount.Account, 0, len(pos))
	for i := range pos {
		accounts = append(accounts, toDomain(&pos[i]))
	}
	return accounts, nil
}

// Exists 检查账号是否存在
func (r *AccountRepositoryImpl) Exists(ctx context.Context, accountID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Account{}).Where("id = ?", accountID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func toDomain(po *entity.Account) *etaccount.Account {
	return &etaccount.Account{
		ID:        po.ID,
		Name:      po.Name,
		Enabled:   po.Enabled,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}
