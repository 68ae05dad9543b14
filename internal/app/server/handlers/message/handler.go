package message

import (
	"github.com/gin-gonic/gin"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/request"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/apimodel/response"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/services/svreply"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/ginx"
)

// MessageHandler 买家消息 HTTP 处理器（桥接端回调入口）
type MessageHandler struct {
	reply *svreply.ReplyService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(reply *svreply.ReplyService) *MessageHandler {
	return &MessageHandler{reply: reply}
}

// Resolve 解析买家消息应答内容接口
// POST /api/v1/messages/reply
// source 为 none 时桥接端保持沉默，不发送任何回复
func (h *MessageHandler) Resolve(c *gin.Context) {
	var req request.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	reply, err := h.reply.OnInboundMessage(c.Request.Context(), req.AccountID, req.BuyerID, req.Message)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromReply(reply))
}
