package etaccount

import (
	"time"

	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
)

// Account 闲鱼账号
// 规则、回复、订单都挂在账号维度下；停用账号不参与同步
type Account struct {
	ID        int64
	Name      string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate 写入时校验
func (a *Account) Validate() error {
	if a.Name == "" {
		return errorx.NewValidation("name", "cannot be empty")
	}
	return nil
}
