package repository

import (
	"context"
	"fmt"

	"FightSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FighterRepository 选手仓储
type FighterRepository interface {
	// GetBySourceURL 按上游定位串查询，不存在返回 ErrNotFound
	GetBySourceURL(ctx context.Context, sourceURL string) (*model.Fighter, error)
	// Upsert 按 source_url 原子写入（不存在则插入，冲突则覆盖内容列），回填 ID
	Upsert(ctx context.Context, f *model.Fighter) error
	Count(ctx context.Context) (int64, error)
}

// fighterContentColumns 冲突时覆盖的列（不含 id/source_url/created_at）
var fighterContentColumns = []string{
	"name", "record", "wins", "losses", "draws",
	"height", "weight_lbs", "reach", "reach_inches", "stance", "dob",
	"sig_strikes_landed_per_min", "striking_accuracy_pct", "sig_strikes_absorbed_per_min", "striking_defense_pct",
	"takedown_average", "takedown_accuracy_pct", "takedown_defense_pct", "submission_average",
	"avg_fight_time_seconds", "wins_by_ko", "wins_by_submission", "wins_by_decision",
	"losses_by_ko", "losses_by_submission", "losses_by_decision",
	"finish_rate", "ko_percentage", "submission_percentage",
	"content_hash", "last_seen_at", "updated_at",
}

type fighterRepository struct {
	db *gorm.DB
}

func NewFighterRepository(db *gorm.DB) FighterRepository {
	return &fighterRepository{db: db}
}

func (r *fighterRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*model.Fighter, error) {
	var f model.Fighter
	if err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).First(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *fighterRepository) Upsert(ctx context.Context, f *model.Fighter) error {
	f.ID = 0
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_url"}},
		DoUpdates: clause.AssignmentColumns(fighterContentColumns),
	}).Create(f).Error; err != nil {
		return fmt.Errorf("写入选手失败: %w, source_url: %s", err, f.SourceURL)
	}
	if f.ID == 0 {
		if err := r.db.WithContext(ctx).Model(&model.Fighter{}).Where("source_url = ?", f.SourceURL).Select("id").Scan(&f.ID).Error; err != nil {
			return fmt.Errorf("回查选手ID失败: %w, source_url: %s", err, f.SourceURL)
		}
	}
	return nil
}

func (r *fighterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Fighter{}).Count(&n).Error
	return n, err
}
