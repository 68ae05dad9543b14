package mdmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
)

func shippingRule(id int64, priority int, keyword string, enabled bool) *etrule.ShippingRule {
	return &etrule.ShippingRule{
		ID:          id,
		AccountID:   1,
		Name:        keyword,
		Priority:    priority,
		ItemKeyword: keyword,
		CardGroupID: 100,
		Enabled:     enabled,
	}
}

func TestMatchShipping_NoRules(t *testing.T) {
	assert.Nil(t, MatchShipping("任意商品", nil))
	assert.Nil(t, MatchShipping("任意商品", []*etrule.ShippingRule{}))
}

func TestMatchShipping_SubstringHit(t *testing.T) {
	rules := []*etrule.ShippingRule{
		shippingRule(1, 10, "视频会员", true),
	}

	got := MatchShipping("【自动发货】视频会员月卡", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	assert.Nil(t, MatchShipping("游戏点卡", rules))
}

func TestMatchShipping_CaseInsensitive(t *testing.T) {
	rules := []*etrule.ShippingRule{
		shippingRule(1, 10, "Netflix", true),
	}

	got := MatchShipping("netflix 高级会员", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatchShipping_WidthFold(t *testing.T) {
	// 全角关键词命中半角标题
	rules := []*etrule.ShippingRule{
		shippingRule(1, 10, "ＶＩＰ", true),
	}

	got := MatchShipping("VIP年卡秒发", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatchShipping_PriorityOrder(t *testing.T) {
	// 命中多条时 priority 小者优先
	rules := []*etrule.ShippingRule{
		shippingRule(1, 20, "会员", true),
		shippingRule(2, 5, "VIP会员", true),
		shippingRule(3, 10, "会员", true),
	}

	got := MatchShipping("VIP会员直充", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatchShipping_TieBreakByID(t *testing.T) {
	rules := []*etrule.ShippingRule{
		shippingRule(7, 10, "会员", true),
		shippingRule(3, 10, "会员", true),
	}

	got := MatchShipping("会员充值", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID)
}

func TestMatchShipping_SkipsDisabled(t *testing.T) {
	rules := []*etrule.ShippingRule{
		shippingRule(1, 1, "会员", false),
		shippingRule(2, 10, "会员", true),
	}

	got := MatchShipping("会员充值", rules)
	assert.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatchShipping_Deterministic(t *testing.T) {
	rules := []*etrule.ShippingRule{
		shippingRule(1, 10, "点卡", true),
		shippingRule(2, 10, "游戏", true),
	}

	first := MatchShipping("游戏点卡", rules)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, MatchShipping("游戏点卡", rules))
	}
}
