package svreply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
	"github.com/88lin/xianyu-super-butler/internal/app/testsupport/memrepo"
)

type fakeGenerator struct {
	content string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(ctx context.Context, accountID int64, message string) (string, error) {
	f.calls++
	return f.content, f.err
}

type replyFixture struct {
	service   *ReplyService
	rules     *mdrule.RuleModule
	settings  *memrepo.SettingRepo
	generator *fakeGenerator
}

func newReplyFixture() *replyFixture {
	ruleRepo := memrepo.NewRuleRepo()
	settings := memrepo.NewSettingRepo()
	generator := &fakeGenerator{}
	rules := mdrule.NewRuleModule(ruleRepo, nil)
	return &replyFixture{
		service:   NewReplyService(rules, settings, generator, logger.NewNop()),
		rules:     rules,
		settings:  settings,
		generator: generator,
	}
}

func (f *replyFixture) seedReplyRule(t *testing.T, keyword string, mt etrule.MatchType, content string, priority int) {
	t.Helper()
	_, err := f.rules.UpsertReply(context.Background(), &etrule.ReplyRule{
		AccountID:    1,
		Keyword:      keyword,
		MatchType:    mt,
		ReplyContent: content,
		Priority:     priority,
		Enabled:      true,
	})
	require.NoError(t, err)
}

func TestOnInboundMessage_RuleHit(t *testing.T) {
	f := newReplyFixture()
	f.seedReplyRule(t, "发货", etrule.MatchFuzzy, "拍下自动发货，请稍等", 10)

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "什么时候发货")
	require.NoError(t, err)
	assert.Equal(t, SourceRule, reply.Source)
	assert.Equal(t, "拍下自动发货，请稍等", reply.Content)
	assert.Equal(t, 0, f.generator.calls)
}

func TestOnInboundMessage_ExactBeatsFuzzy(t *testing.T) {
	f := newReplyFixture()
	f.seedReplyRule(t, "退", etrule.MatchFuzzy, "请描述问题", 1)
	f.seedReplyRule(t, "退款", etrule.MatchExact, "已收到退款申请", 99)

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "退款")
	require.NoError(t, err)
	assert.Equal(t, "已收到退款申请", reply.Content)
}

func TestOnInboundMessage_DefaultReplyFallback(t *testing.T) {
	f := newReplyFixture()
	require.NoError(t, f.settings.Update(context.Background(), &etsetting.SystemSettings{
		DefaultReply: "您好，稍后回复您",
	}))

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "在吗")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, reply.Source)
	assert.Equal(t, "您好，稍后回复您", reply.Content)
	assert.Equal(t, 0, f.generator.calls)
}

func TestOnInboundMessage_AIFallback(t *testing.T) {
	f := newReplyFixture()
	require.NoError(t, f.settings.Update(context.Background(), &etsetting.SystemSettings{
		AIModel: "qwen-turbo",
	}))
	f.generator.content = "这边看到您的消息啦"

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "在吗")
	require.NoError(t, err)
	assert.Equal(t, SourceAI, reply.Source)
	assert.Equal(t, "这边看到您的消息啦", reply.Content)
	assert.Equal(t, 1, f.generator.calls)
}

func TestOnInboundMessage_AIFailureStaysSilent(t *testing.T) {
	f := newReplyFixture()
	require.NoError(t, f.settings.Update(context.Background(), &etsetting.SystemSettings{
		AIModel: "qwen-turbo",
	}))
	f.generator.err = errors.New("model endpoint 502")

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "在吗")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, reply.Source)
	assert.Empty(t, reply.Content)
}

func TestOnInboundMessage_NoAIConfiguredStaysSilent(t *testing.T) {
	f := newReplyFixture()

	reply, err := f.service.OnInboundMessage(context.Background(), 1, "buyer-1", "在吗")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, reply.Source)
	assert.Equal(t, 0, f.generator.calls)
}
