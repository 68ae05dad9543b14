package card

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// ImportCards 批量导入卡密接口，内容按行拆分，空行忽略
// POST /api/v1/card-groups/:id/cards
func (h *CardHandler) ImportCards(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ginx.BadRequest(c, "invalid group id")
		return
	}

	var req request.ImportCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	payloads := make([]string, 0)
	for _, line := range strings.Split(req.Content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			payloads = append(payloads, line)
		}
	}

	imported, err := h.cards.ImportInstances(c.Request.Context(), groupID, payloads)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, &response.ImportCardsResponse{Imported: imported})
}
