package card

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// CreateGroup 创建卡密组接口
// POST /api/v1/card-groups
func (h *CardHandler) CreateGroup(c *gin.Context) {
	var req request.CreateCardGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	group := &etcard.CardGroup{
		AccountID:   req.AccountID,
		Name:        req.Name,
		Kind:        etcard.Kind(req.Kind),
		Payload:     req.Payload,
		Description: req.Description,
		Enabled:     enabled,
	}

	if err := h.cards.CreateGroup(c.Request.Context(), group); err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromCardGroup(group, nil))
}

// UpdateGroup 更新卡密组接口
// PUT /api/v1/card-groups/:id
func (h *CardHandler) UpdateGroup(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid group id")
		return
	}

	var req request.UpdateCardGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	group, err := h.cards.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	group.Name = req.Name
	if req.Payload != "" {
		group.Payload = req.Payload
	}
	group.Description = req.Description
	if req.Enabled != nil {
		group.Enabled = *req.Enabled
	}

	if err := h.cards.UpdateGroup(c.Request.Context(), group); err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromCardGroup(group, nil))
}

// DeleteGroup 删除卡密组接口（级联删除组内卡密实例）
// DELETE /api/v1/card-groups/:id
func (h *CardHandler) DeleteGroup(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid group id")
		return
	}

	if err := h.cards.DeleteGroup(c.Request.Context(), groupID); err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, gin.H{"deleted": groupID})
}

// GetGroup 查询卡密组详情接口（含库存）
// GET /api/v1/card-groups/:id
func (h *CardHandler) GetGroup(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid group id")
		return
	}

	group, err := h.cards.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	var stock *etcard.GroupStock
	if group.Kind == etcard.KindData {
		if stock, err = h.cards.Stock(c.Request.Context(), groupID); err != nil {
			ginx.HandleError(c, err)
			return
		}
	}
	ginx.Success(c, response.FromCardGroup(group, stock))
}

// ListGroups 查询卡密组列表接口
// GET /api/v1/card-groups?account_id=1
func (h *CardHandler) ListGroups(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.DefaultQuery("account_id", "0"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid account_id")
		return
	}

	groups, err := h.cards.ListGroups(c.Request.Context(), accountID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	items := make([]*response.CardGroupResponse, 0, len(groups))
	for _, group := range groups {
		var stock *etcard.GroupStock
		if group.Kind == etcard.KindData {
			if stock, err = h.cards.Stock(c.Request.Context(), group.ID); err != nil {
				ginx.HandleError(c, err)
				return
			}
		}
		items = append(items, response.FromCardGroup(group, stock))
	}
	ginx.Success(c, items)
}
