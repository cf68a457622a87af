package repository

import (
	"context"

	"gorm.io/gorm"
)

// ingestLockKey 入库事务使用的 PostgreSQL advisory lock 键
const ingestLockKey int64 = 0x46_53_59_4e_43 // "FSYNC"

// Store 绑定到同一个 *gorm.DB 句柄（连接或事务）的全部仓储
type Store struct {
	db       *gorm.DB
	Fighters FighterRepository
	Events   EventRepository
	Fights   FightRepository
	Runs     RunRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Fighters: NewFighterRepository(db),
		Events:   NewEventRepository(db),
		Fights:   NewFightRepository(db),
		Runs:     NewRunRepository(db),
	}
}

// Transaction 在单个事务中执行 fn；fn 收到的 Store 全部绑定到该事务。
// fn 返回错误或 panic 时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// LockIngestion 获取事务级 advisory lock，串行化并发入库运行；非 PostgreSQL 方言直接返回
func (s *Store) LockIngestion(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", ingestLockKey).Error
}
