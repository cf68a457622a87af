package repository

import (
	"context"
	"fmt"

	"FightSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository 赛事仓储
type EventRepository interface {
	// GetBySourceURL 按上游定位串查询，不存在返回 ErrNotFound
	GetBySourceURL(ctx context.Context, sourceURL string) (*model.Event, error)
	// ListBySourceURLs 批量查询，供取消推断确定范围
	ListBySourceURLs(ctx context.Context, sourceURLs []string) ([]*model.Event, error)
	// Upsert 按 source_url 原子写入，回填 ID
	Upsert(ctx context.Context, e *model.Event) error
	Count(ctx context.Context) (int64, error)
}

var eventContentColumns = []string{
	"name", "date", "venue", "location", "completed", "cancelled",
	"content_hash", "last_seen_at", "updated_at",
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).First(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *eventRepository) ListBySourceURLs(ctx context.Context, sourceURLs []string) ([]*model.Event, error) {
	if len(sourceURLs) == 0 {
		return []*model.Event{}, nil
	}
	var events []*model.Event
	if err := r.db.WithContext(ctx).
		Where("source_url IN ?", sourceURLs).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) Upsert(ctx context.Context, e *model.Event) error {
	e.ID = 0
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_url"}},
		DoUpdates: clause.AssignmentColumns(eventContentColumns),
	}).Create(e).Error; err != nil {
		return fmt.Errorf("写入赛事失败: %w, source_url: %s", err, e.SourceURL)
	}
	if e.ID == 0 {
		if err := r.db.WithContext(ctx).Model(&model.Event{}).Where("source_url = ?", e.SourceURL).Select("id").Scan(&e.ID).Error; err != nil {
			return fmt.Errorf("回查赛事ID失败: %w, source_url: %s", err, e.SourceURL)
		}
	}
	return nil
}

func (r *eventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Count(&n).Error
	return n, err
}
