package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"FightSync/internal/config"
	"FightSync/internal/model"
	"FightSync/internal/observability"
	"FightSync/internal/repository"
	"FightSync/internal/snapshot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRunFailed 入库事务失败（已整体回滚）；调用方只需映射为 500，细节见台账
var ErrRunFailed = errors.New("ingestion run failed")

// Counts 单次运行的写入统计
type Counts struct {
	FightersAdded   int `json:"fightersAdded"`
	FightersUpdated int `json:"fightersUpdated"`
	EventsAdded     int `json:"eventsAdded"`
	EventsUpdated   int `json:"eventsUpdated"`
	FightsAdded     int `json:"fightsAdded"`
	FightsUpdated   int `json:"fightsUpdated"`
	FightsCancelled int `json:"fightsCancelled"`
	FightsSkipped   int `json:"fightsSkipped"`
}

// Result 单次运行结果
type Result struct {
	RunID    string         `json:"runId"`
	LedgerID uint64         `json:"-"`
	Status   string         `json:"status"`
	Counts   Counts         `json:"counts"`
	Skipped  []SkippedFight `json:"skipped,omitempty"`
}

// runDetails 台账 details 列的内容
type runDetails struct {
	Skipped    []SkippedFight `json:"skipped,omitempty"`
	Snapshot   snapshotSize   `json:"snapshot"`
	RolledBack bool           `json:"rolledBack,omitempty"`
}

type snapshotSize struct {
	Events     int `json:"events"`
	Fighters   int `json:"fighters"`
	Fights     int `json:"fights"`
	ScrapedURL int `json:"scrapedEventUrls"`
}

// IngestService 快照入库引擎：选手 → 赛事 → 对阵 → 取消推断，在同一事务内完成
type IngestService struct {
	store   *repository.Store
	cfg     config.IngestConfig
	metrics *observability.IngestMetrics
	logger  *logrus.Logger

	// 同进程内串行化；跨进程由 advisory lock 保证
	mu sync.Mutex
	// now 测试可替换
	now func() time.Time
}

func NewIngestService(db *gorm.DB, cfg config.IngestConfig, metrics *observability.IngestMetrics, logger *logrus.Logger) *IngestService {
	return &IngestService{
		store:   repository.NewStore(db),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ingestRun 单次运行的可变状态，只在事务回调内使用
type ingestRun struct {
	runID    string
	tx       *repository.Store
	snap     *snapshot.Snapshot
	resolver *identityResolver
	logger   *logrus.Logger
	now      time.Time

	legacyPairFallback bool
	keepOnSkippedFight bool
	keepOnEmptyCard    bool

	counts     Counts
	skipped    []SkippedFight
	observed   map[uint64]map[PairKey]struct{}
	incomplete map[uint64]struct{}
}

// Ingest 执行一次入库。snap 必须已通过 snapshot.Validate。
// 无论成功失败都会追加一条台账；失败时返回的 Result 仍带 RunID
func (s *IngestService) Ingest(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	startedAt := s.now()
	logger := s.logger.WithField("run_id", runID)
	logger.WithFields(logrus.Fields{
		"events":             len(snap.Events),
		"fighters":           len(snap.Fighters),
		"fights":             len(snap.Fights),
		"scraped_event_urls": len(snap.ScrapedEventURLs),
	}).Info("开始入库快照")

	var run *ingestRun
	txErr := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.LockIngestion(ctx); err != nil {
			return fmt.Errorf("获取入库锁失败: %w", err)
		}
		run = &ingestRun{
			runID:              runID,
			tx:                 tx,
			snap:               snap,
			resolver:           newIdentityResolver(tx, snap),
			logger:             s.logger,
			now:                startedAt,
			legacyPairFallback: s.cfg.LegacyPairFallback,
			keepOnSkippedFight: s.cfg.KeepOnSkippedFight,
			keepOnEmptyCard:    s.cfg.KeepOnEmptyCard,
			observed:           make(map[uint64]map[PairKey]struct{}),
			incomplete:         make(map[uint64]struct{}),
		}
		if err := run.upsertFighters(ctx); err != nil {
			return err
		}
		if err := run.upsertEvents(ctx); err != nil {
			return err
		}
		if err := run.upsertFights(ctx); err != nil {
			return err
		}
		return run.reconcileCancellations(ctx)
	})

	finishedAt := s.now()
	result := &Result{RunID: runID, Status: model.RunStatusSuccess}
	ledger := &model.IngestionRun{
		RunUUID:    runID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Status:     model.RunStatusSuccess,
	}
	details := runDetails{Snapshot: snapshotSize{
		Events:     len(snap.Events),
		Fighters:   len(snap.Fighters),
		Fights:     len(snap.Fights),
		ScrapedURL: len(snap.ScrapedEventURLs),
	}}

	if txErr != nil {
		// 回滚后库内没有任何本次写入，统计全部记 0
		msg := txErr.Error()
		result.Status = model.RunStatusFailure
		ledger.Status = model.RunStatusFailure
		ledger.ErrorMessage = &msg
		details.RolledBack = true
	} else {
		result.Counts = run.counts
		result.Skipped = run.skipped
		details.Skipped = run.skipped
		applyCounts(ledger, run.counts)
	}

	if raw, err := json.Marshal(details); err == nil {
		ledger.Details = datatypes.JSON(raw)
	}

	// 台账在事务之外写入；请求已取消时也要落库
	if err := s.store.Runs.Create(context.WithoutCancel(ctx), ledger); err != nil {
		s.metrics.ObserveLedgerError()
		logger.WithError(err).Error("写入运行台账失败")
	} else {
		result.LedgerID = ledger.ID
	}

	s.metrics.ObserveRun(result.Status, finishedAt.Sub(startedAt))
	if txErr != nil {
		logger.WithError(txErr).Error("入库失败，事务已回滚")
		return result, fmt.Errorf("%w: %w", ErrRunFailed, txErr)
	}

	c := result.Counts
	s.metrics.ObserveWrites("fighter", c.FightersAdded, c.FightersUpdated)
	s.metrics.ObserveWrites("event", c.EventsAdded, c.EventsUpdated)
	s.metrics.ObserveWrites("fight", c.FightsAdded, c.FightsUpdated)
	s.metrics.ObserveCancelled(c.FightsCancelled)
	s.metrics.ObserveSkipped(c.FightsSkipped)
	logger.WithFields(logrus.Fields{
		"fighters_added":   c.FightersAdded,
		"fighters_updated": c.FightersUpdated,
		"events_added":     c.EventsAdded,
		"events_updated":   c.EventsUpdated,
		"fights_added":     c.FightsAdded,
		"fights_updated":   c.FightsUpdated,
		"fights_cancelled": c.FightsCancelled,
		"fights_skipped":   c.FightsSkipped,
		"elapsed":          finishedAt.Sub(startedAt).String(),
	}).Info("入库完成")
	return result, nil
}

func applyCounts(ledger *model.IngestionRun, c Counts) {
	ledger.FightersAdded = c.FightersAdded
	ledger.FightersUpdated = c.FightersUpdated
	ledger.EventsAdded = c.EventsAdded
	ledger.EventsUpdated = c.EventsUpdated
	ledger.FightsAdded = c.FightsAdded
	ledger.FightsUpdated = c.FightsUpdated
	ledger.FightsCancelled = c.FightsCancelled
	ledger.FightsSkipped = c.FightsSkipped
}

// ListRuns 分页查询运行台账，status 为空表示不过滤
func (s *IngestService) ListRuns(ctx context.Context, status string, page, pageSize int) ([]*model.IngestionRun, int64, error) {
	return s.store.Runs.List(ctx, status, page, pageSize)
}

// GetRun 按运行 ID 查询台账
func (s *IngestService) GetRun(ctx context.Context, runID string) (*model.IngestionRun, error) {
	return s.store.Runs.GetByUUID(ctx, runID)
}
