package repository

import (
	"context"
	"fmt"
	"time"

	"FightSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FightRepository 对阵仓储。选手对的规范化由调用方负责，仓储只按给定顺序查询
type FightRepository interface {
	// FindByPair 按 (赛事, fighter1, fighter2) 精确查询，不存在返回 ErrNotFound
	FindByPair(ctx context.Context, eventID, fighter1ID, fighter2ID uint64) (*model.Fight, error)
	// FindBySourceURL 按对阵自身的上游定位串查询
	FindBySourceURL(ctx context.Context, sourceURL string) (*model.Fight, error)
	// Create 按 (event_id, fighter1_id, fighter2_id) 原子插入，并发冲突时覆盖内容列
	Create(ctx context.Context, f *model.Fight) error
	// Update 按 ID 覆盖全部可变列（含选手对，用于把旧数据改写为规范顺序）
	Update(ctx context.Context, f *model.Fight) error
	// ListActiveByEvent 赛事下未结束且未取消的对阵
	ListActiveByEvent(ctx context.Context, eventID uint64) ([]*model.Fight, error)
	// MarkCancelled 批量标记取消，返回受影响行数
	MarkCancelled(ctx context.Context, ids []uint64, at time.Time) (int64, error)
	// ListByEvent 赛事下全部对阵（按 ID 升序）
	ListByEvent(ctx context.Context, eventID uint64) ([]*model.Fight, error)
	// ListReversedPairs fighter1_id > fighter2_id 的历史数据（按 ID 游标分页），供一次性规范化迁移
	ListReversedPairs(ctx context.Context, afterID uint64, limit int) ([]*model.Fight, error)
	Count(ctx context.Context) (int64, error)
}

// fightMutableColumns Update/冲突覆盖时写入的列
var fightMutableColumns = []string{
	"source_url", "fighter1_id", "fighter2_id",
	"weight_class", "title_fight", "main_event", "card_position", "scheduled_rounds",
	"completed", "winner_id", "method", "round", "time",
	"is_cancelled", "content_hash", "last_seen_at", "updated_at",
}

type fightRepository struct {
	db *gorm.DB
}

func NewFightRepository(db *gorm.DB) FightRepository {
	return &fightRepository{db: db}
}

func (r *fightRepository) FindByPair(ctx context.Context, eventID, fighter1ID, fighter2ID uint64) (*model.Fight, error) {
	var f model.Fight
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND fighter1_id = ? AND fighter2_id = ?", eventID, fighter1ID, fighter2ID).
		First(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *fightRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*model.Fight, error) {
	var f model.Fight
	if err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).Order("id ASC").First(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *fightRepository) Create(ctx context.Context, f *model.Fight) error {
	f.ID = 0
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}, {Name: "fighter1_id"}, {Name: "fighter2_id"}},
		// 冲突时不改写选手对本身
		DoUpdates: clause.AssignmentColumns(fightMutableColumns[3:]),
	}).Create(f).Error; err != nil {
		return fmt.Errorf("保存对阵失败: %w, event_id: %d, pair: %d/%d", err, f.EventID, f.Fighter1ID, f.Fighter2ID)
	}
	if f.ID == 0 {
		if err := r.db.WithContext(ctx).Model(&model.Fight{}).
			Where("event_id = ? AND fighter1_id = ? AND fighter2_id = ?", f.EventID, f.Fighter1ID, f.Fighter2ID).
			Select("id").Scan(&f.ID).Error; err != nil {
			return fmt.Errorf("回查对阵ID失败: %w", err)
		}
	}
	return nil
}

func (r *fightRepository) Update(ctx context.Context, f *model.Fight) error {
	res := r.db.WithContext(ctx).Model(&model.Fight{}).
		Where("id = ?", f.ID).
		Select(fightMutableColumns).
		Updates(f)
	if res.Error != nil {
		return fmt.Errorf("更新对阵失败: %w, fight_id: %d", res.Error, f.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("更新对阵失败: %w, fight_id: %d", ErrNotFound, f.ID)
	}
	return nil
}

func (r *fightRepository) ListActiveByEvent(ctx context.Context, eventID uint64) ([]*model.Fight, error) {
	var fights []*model.Fight
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND completed = ? AND is_cancelled = ?", eventID, false, false).
		Order("id ASC").
		Find(&fights).Error; err != nil {
		return nil, err
	}
	return fights, nil
}

func (r *fightRepository) MarkCancelled(ctx context.Context, ids []uint64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Fight{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_cancelled": true,
			"last_seen_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("标记对阵取消失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *fightRepository) ListByEvent(ctx context.Context, eventID uint64) ([]*model.Fight, error) {
	var fights []*model.Fight
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&fights).Error; err != nil {
		return nil, err
	}
	return fights, nil
}

func (r *fightRepository) ListReversedPairs(ctx context.Context, afterID uint64, limit int) ([]*model.Fight, error) {
	if limit <= 0 {
		limit = 1000
	}
	var fights []*model.Fight
	if err := r.db.WithContext(ctx).
		Where("fighter1_id > fighter2_id AND id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&fights).Error; err != nil {
		return nil, err
	}
	return fights, nil
}

func (r *fightRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Fight{}).Count(&n).Error
	return n, err
}
