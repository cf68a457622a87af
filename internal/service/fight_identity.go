package service

import (
	"fmt"

	"FightSync/internal/snapshot"
)

// PairKey 对阵的逻辑键：赛事 + 规范顺序的选手对
type PairKey struct {
	EventID    uint64
	Fighter1ID uint64
	Fighter2ID uint64
}

func (k PairKey) String() string {
	return fmt.Sprintf("%d:%d-%d", k.EventID, k.Fighter1ID, k.Fighter2ID)
}

// CanonicalPair 按选手 ID 数值升序排列，保证同一对选手无论上游先列谁都得到同一结果
func CanonicalPair(a, b uint64) (lo, hi uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// NewPairKey 规范化后构造逻辑键
func NewPairKey(eventID, a, b uint64) PairKey {
	lo, hi := CanonicalPair(a, b)
	return PairKey{EventID: eventID, Fighter1ID: lo, Fighter2ID: hi}
}

// Reversed 反序键，仅用于兜底查找规范化之前写入的旧数据
func (k PairKey) Reversed() PairKey {
	return PairKey{EventID: k.EventID, Fighter1ID: k.Fighter2ID, Fighter2ID: k.Fighter1ID}
}

// winnerSide 胜者判定结果
type winnerSide int

const (
	winnerNone winnerSide = iota // 未给出胜者（未结束/平局/无结果）
	winnerFirst
	winnerSecond
	winnerUnknown // 给出了胜者但不是本场两名选手之一
)

// resolveWinner 用快照自身（未规范化）的选手引用判定胜方，再映射到对应一侧的内部 ID。
// 该映射与之后如何规范化存储顺序无关
func resolveWinner(in snapshot.Fight, fighter1ID, fighter2ID uint64) (*uint64, winnerSide) {
	if in.WinnerID == nil || *in.WinnerID == "" {
		return nil, winnerNone
	}
	switch *in.WinnerID {
	case in.Fighter1ID:
		id := fighter1ID
		return &id, winnerFirst
	case in.Fighter2ID:
		id := fighter2ID
		return &id, winnerSecond
	default:
		return nil, winnerUnknown
	}
}
