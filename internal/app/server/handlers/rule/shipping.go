package rule

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// ListShipping 发货规则列表接口
// GET /api/v1/rules/shipping?account_id=1
func (h *RuleHandler) ListShipping(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.DefaultQuery("account_id", "0"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid account_id")
		return
	}

	snap, err := h.rules.Snapshot(c.Request.Context(), accountID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromShippingRules(snap.Shipping))
}

// UpsertShipping 新增/更新发货规则接口
// POST /api/v1/rules/shipping
func (h *RuleHandler) UpsertShipping(c *gin.Context) {
	var req request.UpsertShippingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule := &etrule.ShippingRule{
		ID:          req.ID,
		AccountID:   req.AccountID,
		Name:        req.Name,
		Priority:    req.Priority,
		ItemKeyword: req.ItemKeyword,
		CardGroupID: req.CardGroupID,
		Enabled:     enabled,
	}

	version, err := h.rules.UpsertShipping(c.Request.Context(), rule)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, &response.RuleMutationResponse{Version: version, RuleID: rule.ID})
}

// DeleteShipping 删除发货规则接口
// DELETE /api/v1/rules/shipping/:id?account_id=1
func (h *RuleHandler) DeleteShipping(c *gin.Context) {
	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid rule id")
		return
	}
	accountID, err := strconv.ParseInt(c.DefaultQuery("account_id", "0"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid account_id")
		return
	}

	version, err := h.rules.DeleteShipping(c.Request.Context(), accountID, ruleID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, &response.RuleMutationResponse{Version: version})
}
