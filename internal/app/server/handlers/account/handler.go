package account

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpaccount"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// AccountHandler 账号 HTTP 处理器
type AccountHandler struct {
	accounts rpaccount.AccountRepository
}

// NewAccountHandler 创建账号处理器实例
func NewAccountHandler(accounts rpaccount.AccountRepository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create 创建账号接口
// POST /api/v1/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req request.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	account := &etaccount.Account{
		Name:    req.Name,
		Enabled: enabled,
	}

	if err := h.accounts.Create(c.Request.Context(), account); err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromAccount(account))
}

// Get 查询账号接口
// GET /api/v1/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid account id")
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromAccount(account))
}

// List 查询账号列表接口
// GET /api/v1/accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromAccounts(accounts))
}
