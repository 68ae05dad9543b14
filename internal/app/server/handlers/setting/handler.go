package setting

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// SettingHandler 系统配置 HTTP 处理器
type SettingHandler struct {
	settings rpsetting.SettingRepository
}

// NewSettingHandler 创建配置处理器实例
func NewSettingHandler(settings rpsetting.SettingRepository) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// Get 查询系统配置接口（API Key 只返回是否已设置）
// GET /api/v1/settings
func (h *SettingHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromSettings(settings))
}

// Update 更新系统配置接口
// PUT /api/v1/settings
// 请求中 ai_api_key 为空时沿用已保存的 Key，避免前端回显脱敏值覆盖真实凭证
func (h *SettingHandler) Update(c *gin.Context) {
	var req request.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	current, err := h.settings.Get(c.Request.Context())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	apiKey := req.AIAPIKey
	if apiKey == "" {
		apiKey = current.AIAPIKey
	}
	settings := &etsetting.SystemSettings{
		AIModel:      req.AIModel,
		AIBaseURL:    req.AIBaseURL,
		AIAPIKey:     apiKey,
		DefaultReply: req.DefaultReply,
		SMTPServer:   req.SMTPServer,
		SMTPPort:     req.SMTPPort,
		NotifyEmail:  req.NotifyEmail,
	}

	if err := h.settings.Update(c.Request.Context(), settings); err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromSettings(settings))
}
