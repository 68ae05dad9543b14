package card

import (
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdcard"
)

// CardHandler 卡密组 HTTP 处理器
type CardHandler struct {
	cards *mdcard.CardModule
}

// NewCardHandler 创建卡密处理器实例
func NewCardHandler(cards *mdcard.CardModule) *CardHandler {
	return &CardHandler{cards: cards}
}
