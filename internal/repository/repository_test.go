package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"FightSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFighter(url, name string) *model.Fighter {
	return &model.Fighter{SourceURL: url, Name: name, ContentHash: "h-" + name, LastSeenAt: time.Now().UTC()}
}

func newEvent(url string) *model.Event {
	return &model.Event{SourceURL: url, Name: url, Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), ContentHash: "h", LastSeenAt: time.Now().UTC()}
}

func newFight(eventID, f1, f2 uint64) *model.Fight {
	return &model.Fight{EventID: eventID, Fighter1ID: f1, Fighter2ID: f2, ContentHash: "h", LastSeenAt: time.Now().UTC()}
}

func TestFighterUpsert_ConflictUpdatesInPlace(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()

	f := newFighter("u/1", "Jon Jones")
	require.NoError(t, store.Fighters.Upsert(ctx, f))
	require.NotZero(t, f.ID)

	again := newFighter("u/1", "Jon 'Bones' Jones")
	require.NoError(t, store.Fighters.Upsert(ctx, again))
	assert.Equal(t, f.ID, again.ID)

	got, err := store.Fighters.GetBySourceURL(ctx, "u/1")
	require.NoError(t, err)
	assert.Equal(t, "Jon 'Bones' Jones", got.Name)

	n, err := store.Fighters.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = store.Fighters.GetBySourceURL(ctx, "u/404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventRepository_ListBySourceURLs(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()
	for _, u := range []string{"e/1", "e/2", "e/3"} {
		require.NoError(t, store.Events.Upsert(ctx, newEvent(u)))
	}

	events, err := store.Events.ListBySourceURLs(ctx, []string{"e/1", "e/3", "e/404"})
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = store.Events.ListBySourceURLs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFightRepository_CreateConflictConverges(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()

	first := newFight(1, 2, 3)
	require.NoError(t, store.Fights.Create(ctx, first))

	dup := newFight(1, 2, 3)
	dup.WeightClass = ptr("Lightweight")
	require.NoError(t, store.Fights.Create(ctx, dup))
	assert.Equal(t, first.ID, dup.ID)

	got, err := store.Fights.FindByPair(ctx, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "Lightweight", *got.WeightClass)

	_, err = store.Fights.FindByPair(ctx, 1, 3, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFightRepository_UpdateMissingRow(t *testing.T) {
	store := NewStore(setupSQLite(t))
	f := newFight(1, 2, 3)
	f.ID = 42
	err := store.Fights.Update(context.Background(), f)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFightRepository_ActiveAndCancel(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()

	open := newFight(1, 1, 2)
	done := newFight(1, 3, 4)
	done.Completed = true
	other := newFight(2, 1, 2)
	for _, f := range []*model.Fight{open, done, other} {
		require.NoError(t, store.Fights.Create(ctx, f))
	}

	active, err := store.Fights.ListActiveByEvent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	n, err := store.Fights.MarkCancelled(ctx, []uint64{open.ID}, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err = store.Fights.ListActiveByEvent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, active)

	n, err = store.Fights.MarkCancelled(ctx, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := store.Fights.ListByEvent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := setupSQLite(t)
	store := NewStore(db)
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.LockIngestion(ctx))
		require.NoError(t, tx.Fighters.Upsert(ctx, newFighter("u/1", "A")))
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	n, err := store.Fighters.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNormalizeFightPairs(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()

	reversed := newFight(1, 9, 4)
	winner := uint64(9)
	reversed.WinnerID = &winner
	canonical := newFight(1, 2, 5)
	twinReversed := newFight(2, 8, 3)
	twinCanonical := newFight(2, 3, 8)
	for _, f := range []*model.Fight{reversed, canonical, twinReversed, twinCanonical} {
		require.NoError(t, store.Fights.Create(ctx, f))
	}

	res, err := NormalizeFightPairs(ctx, store, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rewritten)
	assert.Equal(t, []uint64{twinReversed.ID}, res.Conflicts)

	got, err := store.Fights.FindByPair(ctx, 1, 4, 9)
	require.NoError(t, err)
	assert.Equal(t, reversed.ID, got.ID)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, uint64(9), *got.WinnerID, "winner is stored by id and survives the swap")

	left, err := store.Fights.ListReversedPairs(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, twinReversed.ID, left[0].ID)

	// 再跑一次只剩冲突行
	res, err = NormalizeFightPairs(ctx, store, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, res.Rewritten)
	assert.Len(t, res.Conflicts, 1)
}

func TestRunRepository_ListPaging(t *testing.T) {
	store := NewStore(setupSQLite(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		status := model.RunStatusSuccess
		if i == 4 {
			status = model.RunStatusFailure
		}
		require.NoError(t, store.Runs.Create(ctx, &model.IngestionRun{
			RunUUID:    "run-" + string(rune('a'+i)),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Status:     status,
		}))
	}

	runs, total, err := store.Runs.List(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-e", runs[0].RunUUID, "newest first")

	runs, total, err = store.Runs.List(ctx, model.RunStatusSuccess, 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-a", runs[0].RunUUID)

	_, err = store.Runs.GetByUUID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ConcurrentUpsertsConvergeOnOneRow(t *testing.T) {
	db := setupPostgres(t)
	store := NewStore(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Transaction(ctx, func(tx *Store) error {
				if err := tx.LockIngestion(ctx); err != nil {
					return err
				}
				return tx.Fighters.Upsert(ctx, newFighter("u/race", "Racer"))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := store.Fighters.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPostgres_FightCreateReturnsExistingID(t *testing.T) {
	store := NewStore(setupPostgres(t))
	ctx := context.Background()

	first := newFight(1, 2, 3)
	require.NoError(t, store.Fights.Create(ctx, first))
	dup := newFight(1, 2, 3)
	require.NoError(t, store.Fights.Create(ctx, dup))
	assert.Equal(t, first.ID, dup.ID)

	n, err := store.Fights.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func ptr[T any](v T) *T { return &v }

func TestPostgres_FighterStatsRoundTripExactly(t *testing.T) {
	store := NewStore(setupPostgres(t))
	ctx := context.Background()

	f := newFighter("u/stats", "Stats")
	f.StrikingAccuracyPct = ptr(47.456)
	f.SigStrikesLandedPerMin = ptr(3.14159)
	require.NoError(t, store.Fighters.Upsert(ctx, f))

	got, err := store.Fighters.GetBySourceURL(ctx, "u/stats")
	require.NoError(t, err)
	require.NotNil(t, got.StrikingAccuracyPct)
	assert.Equal(t, 47.456, *got.StrikingAccuracyPct)
	assert.Equal(t, 3.14159, *got.SigStrikesLandedPerMin)
}
