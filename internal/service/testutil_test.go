package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"FightSync/internal/config"
	"FightSync/internal/model"
	"FightSync/internal/repository"
	"FightSync/internal/snapshot"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestDB 每个测试独立的内存 sqlite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func newTestService(t *testing.T) (*IngestService, *gorm.DB) {
	t.Helper()
	return newTestServiceWith(t, config.IngestConfig{LegacyPairFallback: true})
}

func newTestServiceWith(t *testing.T, cfg config.IngestConfig) (*IngestService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewIngestService(db, cfg, nil, quietLogger()), db
}

func fighterURL(id string) string { return "http://ufcstats.com/fighter-details/" + id }
func eventURL(id string) string   { return "http://ufcstats.com/event-details/" + id }
func fightURL(id string) string   { return "http://ufcstats.com/fight-details/" + id }

func fighter(id, name string) snapshot.Fighter {
	return snapshot.Fighter{ID: id, SourceURL: fighterURL(id), Name: name}
}

func event(id, name string) snapshot.Event {
	return snapshot.Event{ID: id, SourceURL: eventURL(id), Name: name, Date: "2024-03-09"}
}

func fight(id, eventID, f1, f2 string) snapshot.Fight {
	return snapshot.Fight{ID: id, SourceURL: strPtr(fightURL(id)), EventID: eventID, Fighter1ID: f1, Fighter2ID: f2}
}

// baseSnapshot: e1 有 a-b、c-d 两场，e2 有 a-c 一场；两个赛事都在爬取范围内
func baseSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Fighters: []snapshot.Fighter{
			fighter("a", "Alpha"), fighter("b", "Bravo"), fighter("c", "Charlie"), fighter("d", "Delta"),
		},
		Events: []snapshot.Event{event("e1", "UFC 299"), event("e2", "UFC 300")},
		Fights: []snapshot.Fight{
			fight("f1", "e1", "a", "b"),
			fight("f2", "e1", "c", "d"),
			fight("f3", "e2", "a", "c"),
		},
		ScrapedEventURLs: []string{eventURL("e1"), eventURL("e2")},
	}
}

func mustIngest(t *testing.T, svc *IngestService, snap *snapshot.Snapshot) *Result {
	t.Helper()
	require.Empty(t, snapshot.Validate(snap))
	res, err := svc.Ingest(context.Background(), snap)
	require.NoError(t, err)
	return res
}

func fighterID(t *testing.T, db *gorm.DB, id string) uint64 {
	t.Helper()
	var f model.Fighter
	require.NoError(t, db.Where("source_url = ?", fighterURL(id)).First(&f).Error)
	return f.ID
}

func fightBySource(t *testing.T, db *gorm.DB, id string) *model.Fight {
	t.Helper()
	var f model.Fight
	require.NoError(t, db.Where("source_url = ?", fightURL(id)).First(&f).Error)
	return &f
}

func countRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
