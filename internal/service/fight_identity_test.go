package service

import (
	"testing"

	"FightSync/internal/model"
	"FightSync/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPair(t *testing.T) {
	lo, hi := CanonicalPair(9, 2)
	assert.Equal(t, uint64(2), lo)
	assert.Equal(t, uint64(9), hi)

	lo, hi = CanonicalPair(2, 9)
	assert.Equal(t, uint64(2), lo)
	assert.Equal(t, uint64(9), hi)

	// 数值序而非字符串序
	lo, hi = CanonicalPair(10, 9)
	assert.Equal(t, uint64(9), lo)
	assert.Equal(t, uint64(10), hi)
}

func TestNewPairKey_OrderInvariant(t *testing.T) {
	assert.Equal(t, NewPairKey(1, 7, 3), NewPairKey(1, 3, 7))
	assert.Equal(t, "1:3-7", NewPairKey(1, 7, 3).String())
	assert.Equal(t, PairKey{EventID: 1, Fighter1ID: 7, Fighter2ID: 3}, NewPairKey(1, 7, 3).Reversed())
}

func TestResolveWinner(t *testing.T) {
	in := snapshot.Fight{Fighter1ID: "b", Fighter2ID: "a"}

	id, side := resolveWinner(in, 20, 10)
	assert.Nil(t, id)
	assert.Equal(t, winnerNone, side)

	in.WinnerID = strPtr("a")
	id, side = resolveWinner(in, 20, 10)
	require.NotNil(t, id)
	assert.Equal(t, uint64(10), *id)
	assert.Equal(t, winnerSecond, side)

	in.WinnerID = strPtr("b")
	id, side = resolveWinner(in, 20, 10)
	require.NotNil(t, id)
	assert.Equal(t, uint64(20), *id)
	assert.Equal(t, winnerFirst, side)

	in.WinnerID = strPtr("z")
	id, side = resolveWinner(in, 20, 10)
	assert.Nil(t, id)
	assert.Equal(t, winnerUnknown, side)
}

func TestMergeFight_WinnerFallback(t *testing.T) {
	key := NewPairKey(1, 10, 20)
	stored := uint64(20)
	existing := &model.Fight{EventID: 1, Fighter1ID: 10, Fighter2ID: 20, WinnerID: &stored, Completed: true}

	// 快照没给胜者也没给 completed：保留库内胜者
	merged := mergeFight(existing, snapshot.Fight{}, key, nil, winnerNone)
	require.NotNil(t, merged.WinnerID)
	assert.Equal(t, stored, *merged.WinnerID)
	assert.True(t, merged.Completed)

	// 明确已结束且无胜者：平局/无结果
	merged = mergeFight(existing, snapshot.Fight{Completed: boolPtr(true)}, key, nil, winnerNone)
	assert.Nil(t, merged.WinnerID)

	// 无法识别的胜者不覆盖库内值
	merged = mergeFight(existing, snapshot.Fight{Completed: boolPtr(true)}, key, nil, winnerUnknown)
	require.NotNil(t, merged.WinnerID)
	assert.Equal(t, stored, *merged.WinnerID)

	// 库内胜者不属于当前选手对（对阵被换人）时丢弃
	merged = mergeFight(existing, snapshot.Fight{}, NewPairKey(1, 10, 30), nil, winnerNone)
	assert.Nil(t, merged.WinnerID)
}

func TestFightFingerprint_IgnoresBookkeeping(t *testing.T) {
	f := &model.Fight{EventID: 1, Fighter1ID: 2, Fighter2ID: 3, WeightClass: strPtr("Flyweight")}
	before := fightFingerprint(f)

	f.IsCancelled = true
	f.ContentHash = "x"
	f.ID = 99
	assert.Equal(t, before, fightFingerprint(f))

	f.WeightClass = strPtr("Bantamweight")
	assert.NotEqual(t, before, fightFingerprint(f))
}

func TestLogLabels(t *testing.T) {
	assert.Equal(t, "7:2-9", NewPairKey(7, 9, 2).String())
	assert.Equal(t, "created", actionCreated.String())
	assert.Equal(t, "updated", actionUpdated.String())
	assert.Equal(t, "unchanged", actionNone.String())
}
