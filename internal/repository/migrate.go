package repository

import (
	"context"
	"errors"
	"fmt"

	"FightSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AutoMigrate 库表不存在则自动创建（按外键依赖顺序）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Fighter{},
		&model.Event{},
		&model.Fight{},
		&model.IngestionRun{},
	); err != nil {
		return fmt.Errorf("数据库表结构迁移失败: %w", err)
	}
	return nil
}

// NormalizeResult 选手对规范化迁移结果
type NormalizeResult struct {
	Rewritten int      // 已改写为规范顺序的行数
	Conflicts []uint64 // 规范顺序的同场对阵已存在，未改写的行 ID（需人工合并）
}

// NormalizeFightPairs 一次性迁移：把 fighter1_id > fighter2_id 的历史对阵改写为规范顺序。
// 全部完成后可关闭 ingest.legacy_pair_fallback。胜者按选手 ID 存储，交换顺序不影响胜者
func NormalizeFightPairs(ctx context.Context, store *Store, logger *logrus.Logger) (*NormalizeResult, error) {
	result := &NormalizeResult{}
	err := store.Transaction(ctx, func(tx *Store) error {
		var cursor uint64
		for {
			rows, err := tx.Fights.ListReversedPairs(ctx, cursor, 500)
			if err != nil {
				return fmt.Errorf("查询反序对阵失败: %w", err)
			}
			if len(rows) == 0 {
				return nil
			}
			for _, f := range rows {
				cursor = f.ID
				_, err := tx.Fights.FindByPair(ctx, f.EventID, f.Fighter2ID, f.Fighter1ID)
				if err == nil {
					result.Conflicts = append(result.Conflicts, f.ID)
					logger.WithFields(logrus.Fields{
						"fight_id": f.ID,
						"event_id": f.EventID,
					}).Warn("规范顺序对阵已存在，跳过改写")
					continue
				}
				if !errors.Is(err, ErrNotFound) {
					return err
				}
				f.Fighter1ID, f.Fighter2ID = f.Fighter2ID, f.Fighter1ID
				if err := tx.Fights.Update(ctx, f); err != nil {
					return err
				}
				result.Rewritten++
			}
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("选手对规范化完成：改写 %d 行，冲突 %d 行", result.Rewritten, len(result.Conflicts))
	return result, nil
}
