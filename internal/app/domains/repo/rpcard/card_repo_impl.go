package rpcard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/88lin/xianyu-super-butler/internal/app/domains/entity/etcard"
	"github.com/88lin/xianyu-super-butler/internal/app/infra/persistence/entity"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/errorx"
	"github.com/88lin/xianyu-super-butler/internal/app/pkg/idgen"
)

// CardRepositoryImpl 卡密仓储实现（MySQL）
type CardRepositoryImpl struct {
	db *gorm.DB
}

// NewCardRepository 创建卡密仓储实例
func NewCardRepository(db *gorm.DB) CardRepository {
	return &CardRepositoryImpl{db: db}
}

// CreateGroup 创建卡密组
func (r *CardRepositoryImpl) CreateGroup(ctx context.Context, group *etcard.CardGroup) error {
	if group.ID == 0 {
		group.ID = idgen.GenerateID()
	}
	return r.db.WithContext(ctx).Create(groupToGorm(group)).Error
}

// UpdateGroup 更新卡密组
func (r *CardRepositoryImpl) UpdateGroup(ctx context.Context, group *etcard.CardGroup) error {
	result := r.db.WithContext(ctx).
		Model(&entity.CardGroup{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"kind":        string(group.Kind),
			"payload":     group.Payload,
			"description": group.Description,
			"enabled":     group.Enabled,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorx.ErrGroupNotFound
	}
	return nil
}

// DeleteGroup 删除卡密组及其实例
func (r *CardRepositoryImpl) DeleteGroup(ctx context.Context, groupID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&entity.CardInstance{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", groupID).Delete(&entity.CardGroup{}).Error
	})
}

// GetGroup 查询卡密组
func (r *CardRepositoryImpl) GetGroup(ctx context.Context, groupID int64) (*etcard.CardGroup, error) {
	var po entity.CardGroup
	err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.ErrGroupNotFound
		}
		return nil, err
	}
	return groupToDomain(&po), nil
}

// ListGroups 查询卡密组列表
func (r *CardRepositoryImpl) ListGroups(ctx context.Context, accountID int64) ([]*etcard.CardGroup, error) {
	var pos []entity.CardGroup
	query := r.db.WithContext(ctx).Model(&entity.CardGroup{})
	if accountID > 0 {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Order("created_at DESC").Find(&pos).Error; err != nil {
		return nil, err
	}

	groups := make([]*etcard.CardGroup, 0, len(pos))
	for i := range pos {
		groups = append(groups, groupToDomain(&pos[i]))
	}
	return groups, nil
}

// AddInstances 批量导入卡密
func (r *CardRepositoryImpl) AddInstances(ctx context.Context, groupID int64, payloads []string) (int, error) {
	if len(payloads) == 0 {
		return 0, nil
	}

	now := time.Now()
	pos := make([]entity.CardInstance, 0, len(payloads))
	for _, payload := range payloads {
		pos = append(pos, entity.CardInstance{
			ID:        idgen.GenerateID(),
			GroupID:   groupID,
			Payload:   payload,
			CreatedAt: now,
		})
	}

	if err := r.db.WithContext(ctx).Create(&pos).Error; err != nil {
		return 0, err
	}
	return len(pos), nil
}

// Stock 统计组库存
func (r *CardRepositoryImpl) Stock(ctx context.Context, groupID int64) (*etcard.GroupStock, error) {
	var free, consumed int64
	base := r.db.WithContext(ctx).Model(&entity.CardInstance{}).Where("group_id = ?", groupID)

	if err := base.Session(&gorm.Session{}).Where("consumed_by = ''").Count(&free).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("consumed_by <> ''").Count(&consumed).Error; err != nil {
		return nil, err
	}

	return &etcard.GroupStock{GroupID: groupID, Free: free, Consumed: consumed}, nil
}

// GetAllocation 查询订单分配记录
func (r *CardRepositoryImpl) GetAllocation(ctx context.Context, orderID string) (*etcard.AllocationRecord, error) {
	var po entity.AllocationRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return allocationToDomain(&po), nil
}

// ClaimNextFree 原子领取下一条空闲卡密
// 行锁 + CAS 双保险：SELECT ... FOR UPDATE 选中最小序号空闲实例，
// UPDATE 再次校验 consumed_by 为空，分配记录在同一事务内落库
func (r *CardRepositoryImpl) ClaimNextFree(ctx context.Context, groupID int64, orderID string) (*etcard.AllocationRecord, error) {
	var record *entity.AllocationRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po entity.CardInstance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND consumed_by = ''", groupID).
			Order("id ASC").
			First(&po).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorx.ErrInsufficientInventory
			}
			return err
		}

		now := time.Now()
		result := tx.Model(&entity.CardInstance{}).
			Where("id = ? AND consumed_by = ''", po.ID).
			Updates(map[string]interface{}{
				"consumed_by": orderID,
				"consumed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 行锁下不应出现，留作并发冲突兜底
			return errorx.Retriable("card instance claimed concurrently")
		}

		record = &entity.AllocationRecord{
			OrderID:    orderID,
			GroupID:    groupID,
			InstanceID: &po.ID,
			Payload:    po.Payload,
			CreatedAt:  now,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	return allocationToDomain(record), nil
}

// SaveAllocation 写分配记录
func (r *CardRepositoryImpl) SaveAllocation(ctx context.Context, record *etcard.AllocationRecord) error {
	po := &entity.AllocationRecord{
		OrderID:    record.OrderID,
		GroupID:    record.GroupID,
		InstanceID: record.InstanceID,
		Payload:    record.Payload,
		CreatedAt:  record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("save allocation record failed: %w", err)
	}
	return nil
}

// groupToGorm 领域对象转换为 GORM 模型
func groupToGorm(group *etcard.CardGroup) *entity.CardGroup {
	return &entity.CardGroup{
		ID:          group.ID,
		AccountID:   group.AccountID,
		Name:        group.Name,
		Kind:        string(group.Kind),
		Payload:     group.Payload,
		Description: group.Description,
		Enabled:     group.Enabled,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
}

// groupToDomain GORM 模型转换为领域对象
func groupToDomain(po *entity.CardGroup) *etcard.CardGroup {
	return &etcard.CardGroup{
		ID:          po.ID,
		AccountID:   po.AccountID,
		Name:        po.Name,
		Kind:        etcard.Kind(po.Kind),
		Payload:     po.Payload,
		Description: po.Description,
		Enabled:     po.Enabled,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}

// allocationToDomain GORM 模型转换为领域对象
func allocationToDomain(po *entity.AllocationRecord) *etcard.AllocationRecord {
	return &etcard.AllocationRecord{
		OrderID:    po.OrderID,
		GroupID:    po.GroupID,
		InstanceID: po.InstanceID,
		Payload:    po.Payload,
		CreatedAt:  po.CreatedAt,
	}
}
