package mdmatch

import (
	"strings"

	"golang.org/x/text/width"
)

// Normalize 匹配前的文本归一化：去首尾空白、全角折半角、转小写
// 规则关键词与被匹配文本走同一归一化，保证全半角混排也能命中
func Normalize(s string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(s)))
}
