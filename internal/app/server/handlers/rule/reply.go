package rule

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// ListReply 回复规则列表接口
// GET /api/v1/rules/reply?account_id=1
func (h *RuleHandler) ListReply(c *gin.Context) {
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
	ginx.Success(c, response.FromReplyRules(snap.Reply))
}

// UpsertReply 新增/更新回复规则接口
// POST /api/v1/rules/reply
func (h *RuleHandler) UpsertReply(c *gin.Context) {
	var req request.UpsertReplyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule := &etrule.ReplyRule{
		ID:           req.ID,
		AccountID:    req.AccountID,
		Keyword:      req.Keyword,
		MatchType:    etrule.MatchType(req.MatchType),
		ReplyContent: req.ReplyContent,
		Priority:     req.Priority,
		Enabled:      enabled,
	}

	version, err := h.rules.UpsertReply(c.Request.Context(), rule)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, &response.RuleMutationResponse{Version: version, RuleID: rule.ID})
}

// DeleteReply 删除回复规则接口
// DELETE /api/v1/rules/reply/:id?account_id=1
func (h *RuleHandler) DeleteReply(c *gin.Context) {
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

	version, err := h.rules.DeleteReply(c.Request.Context(), accountID, ruleID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, &response.RuleMutationResponse{Version: version})
}
