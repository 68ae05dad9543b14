package svreply

import (
	"context"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdmatch"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/modules/mdrule"
	"github.com/88lin/xianyu-super-butler/internal/app/domains/repo/rpsetting"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/logger"
)

// ReplyGenerator AI 兜底回复生成器（按系统配置的模型与接口地址调用）
type ReplyGenerator interface {
	Generate(ctx context.Context, accountID int64, message string) (string, error)
}

// 回复来源
const (
	SourceRule    = "rule"    // 命中关键词规则
	SourceDefault = "default" // 账号默认回复
	SourceAI      = "ai"      // AI 生成
	SourceNone    = "none"    // 无回复（保持沉默）
)

// Reply 解析后的回复内容
type Reply struct {
	Content string
	Source  string
	RuleID  int64 // 仅 rule 来源有值
}

// ReplyService 买家消息自动回复
// 只读服务：解析回复内容交给传输层，从不触碰订单状态
type ReplyService struct {
	rules     *mdrule.RuleModule
	settings  rpsetting.SettingRepository
	generator ReplyGenerator
	log       logger.Logger
}

// NewReplyService 创建自动回复服务
func NewReplyService(rules *mdrule.RuleModule, settings rpsetting.SettingRepository, generator ReplyGenerator, log logger.Logger) *ReplyService {
	return &ReplyService{
		rules:     rules,
		settings:  settings,
		generator: generator,
		log:       log,
	}
}

// OnInboundMessage 处理买家消息，按 规则 -> 默认回复 -> AI 的次序解析
// 三级都未产出内容时返回 SourceNone，调用方不发送任何回复
func (s *ReplyService) OnInboundMessage(ctx context.Context, accountID int64, buyerID, message string) (*Reply, error) {
	snap, err := s.rules.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if rule := mdmatch.MatchReply(message, snap.Reply); rule != nil {
		s.log.Infof(ctx, "reply rule %d matched for buyer %s (snapshot v%d)", rule.ID, buyerID, snap.Version)
		return &Reply{Content: rule.ReplyContent, Source: SourceRule, RuleID: rule.ID}, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.DefaultReply != "" {
		return &Reply{Content: settings.DefaultReply, Source: SourceDefault}, nil
	}

	// AI 兜底尽力而为，失败退化为沉默而不是报错给消息通道
	if s.generator != nil && settings.AIModel != "" {
		content, err := s.generator.Generate(ctx, accountID, message)
		if err != nil {
			s.log.Warnf(ctx, "ai reply generation failed: %v", err)
			return &Reply{Source: SourceNone}, nil
		}
		if content != "" {
			return &Reply{Content: content, Source: SourceAI}, nil
		}
	}

	return &Reply{Source: SourceNone}, nil
}
