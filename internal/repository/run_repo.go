package repository

import (
	"context"
	"fmt"

	"FightSync/internal/model"

	"gorm.io/gorm"
)

// RunRepository 入库运行台账（只追加）
type RunRepository interface {
	Create(ctx context.Context, run *model.IngestionRun) error
	GetByUUID(ctx context.Context, runUUID string) (*model.IngestionRun, error)
	// List 按开始时间倒序分页
	List(ctx context.Context, status string, page, pageSize int) ([]*model.IngestionRun, int64, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *model.IngestionRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("写入运行台账失败: %w, run_uuid: %s", err, run.RunUUID)
	}
	return nil
}

func (r *runRepository) GetByUUID(ctx context.Context, runUUID string) (*model.IngestionRun, error) {
	var run model.IngestionRun
	if err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

func (r *runRepository) List(ctx context.Context, status string, page, pageSize int) ([]*model.IngestionRun, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.IngestionRun{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var runs []*model.IngestionRun
	if err := db.Order("started_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
