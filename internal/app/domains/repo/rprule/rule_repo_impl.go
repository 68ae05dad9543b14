package rprule

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etrule"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/entity"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/idgen"
)

// RuleRepositoryImpl 规则仓储实现（MySQL）
type RuleRepositoryImpl struct {
	db *gorm.DB
}

// NewRuleRepository 创建规则仓储实例
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &RuleRepositoryImpl{db: db}
}

// ListShipping 查询发货规则
func (r *RuleRepositoryImpl) ListShipping(ctx context.Context, accountID int64) ([]*etrule.ShippingRule, error) {
	var pos []entity.ShippingRule
	query := r.db.WithContext(ctx).Model(&entity.ShippingRule{})
	if accountID > 0 {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("priority ASC, id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}

	rules := make([]*etrule.ShippingRule, 0, len(pos))
	for i := range pos {
		rules = append(rules, shippingToDomain(&pos[i]))
	}
	return rules, nil
}

// UpsertShipping 新增或更新发货规则
func (r *RuleRepositoryImpl) UpsertShipping(ctx context.Context, rule *etrule.ShippingRule) error {
	now := time.Now()
	if rule.ID == 0 {
		rule.ID = idgen.GenerateID()
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	return r.db.WithContext(ctx).Save(shippingToGorm(rule)).Error
}

// DeleteShipping 删除发货规则
func (r *RuleRepositoryImpl) DeleteShipping(ctx context.Context, ruleID int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", ruleID).Delete(&entity.ShippingRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorx.ErrRuleNotFound
	}
	return nil
}

// ListReply 查询回复规则
func (r *RuleRepositoryImpl) ListReply(ctx context.Context, accountID int64) ([]*etrule.ReplyRule, error) {
	var pos []entity.ReplyRule
	query := r.db.WithContext(ctx).Model(&entity.ReplyRule{})
	if accountID > 0 {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("priority ASC, id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}

	rules := make([]*etrule.ReplyRule, 0, len(pos))
	for i := range pos {
		rules = append(rules, replyToDomain(&pos[i]))
	}
	return rules, nil
}

// UpsertReply 新增或更新回复规则
func (r *RuleRepositoryImpl) UpsertReply(ctx context.Context, rule *etrule.ReplyRule) error {
	now := time.Now()
	if rule.ID == 0 {
		rule.ID = idgen.GenerateID()
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	return r.db.WithContext(ctx).Save(replyToGorm(rule)).Error
}

// DeleteReply 删除回复规则
func (r *RuleRepositoryImpl) DeleteReply(ctx context.Context, ruleID int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", ruleID).Delete(&entity.ReplyRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorx.ErrRuleNotFound
	}
	return nil
}

func shippingToGorm(rule *etrule.ShippingRule) *entity.ShippingRule {
	return &entity.ShippingRule{
		ID:          rule.ID,
		AccountID:   rule.AccountID,
		Name:        rule.Name,
		Priority:    rule.Priority,
		ItemKeyword: rule.ItemKeyword,
		CardGroupID: rule.CardGroupID,
		Enabled:     rule.Enabled,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

func shippingToDomain(po *entity.ShippingRule) *etrule.ShippingRule {
	return &etrule.ShippingRule{
		ID:          po.ID,
		AccountID:   po.AccountID,
		Name:        po.Name,
		Priority:    po.Priority,
		ItemKeyword: po.ItemKeyword,
		CardGroupID: po.CardGroupID,
		Enabled:     po.Enabled,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}

func replyToGorm(rule *etrule.ReplyRule) *entity.ReplyRule {
	return &entity.ReplyRule{
		ID:           rule.ID,
		AccountID:    rule.AccountID,
		Keyword:      rule.Keyword,
		MatchType:    string(rule.MatchType),
		ReplyContent: rule.ReplyContent,
		Priority:     rule.Priority,
		Enabled:      rule.Enabled,
		CreatedAt:    rule.CreatedAt,
		UpdatedAt:    rule.UpdatedAt,
	}
}

func replyToDomain(po *entity.ReplyRule) *etrule.ReplyRule {
	return &etrule.ReplyRule{
		ID:           po.ID,
		AccountID:    po.AccountID,
		Keyword:      po.Keyword,
		MatchType:    etrule.MatchType(po.MatchType),
		ReplyContent: po.ReplyContent,
		Priority:     po.Priority,
		Enabled:      po.Enabled,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}
