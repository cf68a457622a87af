package service

import (
	"context"
	"errors"
	"fmt"

	"FightSync/internal/model"
	"FightSync/internal/repository"
	"FightSync/internal/snapshot"
	"FightSync/internal/utils/fingerprint"

	"github.com/sirupsen/logrus"
)

// SkippedFight 因引用无法解析而跳过的对阵
type SkippedFight struct {
	FightID string `json:"fightId"`
	EventID string `json:"eventId"`
	Reason  string `json:"reason"`
}

// fightMatch 查找已有对阵的命中方式
type fightMatch int

const (
	matchNone fightMatch = iota
	matchCanonical
	matchReversed
	matchExternalRef
)

// upsertFights 依次合并快照中的对阵；单条引用缺失只跳过该条，不中断整批
func (r *ingestRun) upsertFights(ctx context.Context) error {
	for i := range r.snap.Fights {
		in := r.snap.Fights[i]
		key, action, skip, err := r.upsertFight(ctx, in)
		if err != nil {
			return err
		}
		if skip != "" {
			r.skipFight(in, skip)
			continue
		}
		r.observe(key)
		r.logger.WithFields(logrus.Fields{"run_id": r.runID, "fight_id": in.ID, "pair": key.String(), "action": action.String()}).Debug("对阵已合并")
		switch action {
		case actionCreated:
			r.counts.FightsAdded++
		case actionUpdated:
			r.counts.FightsUpdated++
		}
	}
	return nil
}

// skipFight 记录跳过原因；赛事能解析时标记该赛事本次观测不完整
func (r *ingestRun) skipFight(in snapshot.Fight, reason string) {
	r.counts.FightsSkipped++
	r.skipped = append(r.skipped, SkippedFight{FightID: in.ID, EventID: in.EventID, Reason: reason})
	r.logger.WithFields(logrus.Fields{
		"run_id":       r.runID,
		"fight_id":     in.ID,
		"event_ref":    in.EventID,
		"fighter1_ref": in.Fighter1ID,
		"fighter2_ref": in.Fighter2ID,
	}).Warnf("对阵引用无法解析，跳过: %s", reason)
}

// upsertFight 返回对阵逻辑键与写入结果；skip 非空表示该条被跳过
func (r *ingestRun) upsertFight(ctx context.Context, in snapshot.Fight) (PairKey, writeAction, string, error) {
	eventID, ok, err := r.resolver.Event(ctx, in.EventID)
	if err != nil {
		return PairKey{}, actionNone, "", fmt.Errorf("解析赛事引用失败: %w", err)
	}
	if !ok {
		return PairKey{}, actionNone, "event not found: " + r.resolver.EventRef(in.EventID), nil
	}
	fighter1ID, ok1, err := r.resolver.Fighter(ctx, in.Fighter1ID)
	if err != nil {
		return PairKey{}, actionNone, "", fmt.Errorf("解析选手引用失败: %w", err)
	}
	fighter2ID, ok2, err := r.resolver.Fighter(ctx, in.Fighter2ID)
	if err != nil {
		return PairKey{}, actionNone, "", fmt.Errorf("解析选手引用失败: %w", err)
	}
	if !ok1 || !ok2 {
		r.markIncomplete(eventID)
		missing := in.Fighter1ID
		if ok1 {
			missing = in.Fighter2ID
		}
		return PairKey{}, actionNone, "fighter not found: " + r.resolver.FighterRef(missing), nil
	}
	if fighter1ID == fighter2ID {
		r.markIncomplete(eventID)
		return PairKey{}, actionNone, "both sides resolve to the same fighter", nil
	}

	winnerID, side := resolveWinner(in, fighter1ID, fighter2ID)
	if side == winnerUnknown {
		r.logger.WithFields(logrus.Fields{
			"run_id":     r.runID,
			"fight_id":   in.ID,
			"winner_ref": *in.WinnerID,
		}).Warn("胜者不是本场两名选手之一，忽略胜者")
	}

	key := NewPairKey(eventID, fighter1ID, fighter2ID)
	existing, match, err := r.findFight(ctx, key, in.SourceURL)
	if err != nil {
		return PairKey{}, actionNone, "", err
	}

	merged := mergeFight(existing, in, key, winnerID, side)
	hash := fightFingerprint(merged)
	merged.ContentHash = hash
	merged.LastSeenAt = r.now
	// 任何一次重新观测都撤销取消标记
	merged.IsCancelled = false

	switch {
	case existing == nil:
		if err := r.tx.Fights.Create(ctx, merged); err != nil {
			return PairKey{}, actionNone, "", err
		}
		return key, actionCreated, "", nil
	case !fingerprint.Equal(existing.ContentHash, hash) || match == matchReversed || existing.IsCancelled:
		// 反序命中的旧数据即使内容未变也要改写为规范顺序
		merged.ID = existing.ID
		if err := r.tx.Fights.Update(ctx, merged); err != nil {
			return PairKey{}, actionNone, "", err
		}
		if existing.IsCancelled {
			r.logger.WithFields(logrus.Fields{"run_id": r.runID, "fight_id": existing.ID}).Info("对阵重新出现，撤销取消标记")
		}
		return key, actionUpdated, "", nil
	default:
		return key, actionNone, "", nil
	}
}

// findFight 兜底查找链：规范选手对 → 反序选手对（兼容规范化之前的数据）→ 对阵自身 ExternalRef。
// 先命中者胜出，规范选手对永远优先于 ExternalRef
func (r *ingestRun) findFight(ctx context.Context, key PairKey, sourceURL *string) (*model.Fight, fightMatch, error) {
	f, err := r.tx.Fights.FindByPair(ctx, key.EventID, key.Fighter1ID, key.Fighter2ID)
	if err == nil {
		return f, matchCanonical, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, matchNone, fmt.Errorf("按选手对查询对阵失败: %w", err)
	}

	if r.legacyPairFallback {
		rev := key.Reversed()
		f, err = r.tx.Fights.FindByPair(ctx, rev.EventID, rev.Fighter1ID, rev.Fighter2ID)
		if err == nil {
			return f, matchReversed, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, matchNone, fmt.Errorf("按反序选手对查询对阵失败: %w", err)
		}
	}

	if sourceURL == nil || *sourceURL == "" {
		return nil, matchNone, nil
	}
	f, err = r.tx.Fights.FindBySourceURL(ctx, *sourceURL)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, matchNone, nil
	}
	if err != nil {
		return nil, matchNone, fmt.Errorf("按定位串查询对阵失败: %w", err)
	}
	// 定位串命中但属于另一场赛事时不合并，避免跨赛事改写
	if f.EventID != key.EventID {
		r.logger.WithFields(logrus.Fields{
			"run_id":     r.runID,
			"fight_id":   f.ID,
			"source_url": *sourceURL,
		}).Warn("对阵定位串命中其他赛事的记录，按新对阵处理")
		return nil, matchNone, nil
	}
	return f, matchExternalRef, nil
}

func mergeFight(existing *model.Fight, in snapshot.Fight, key PairKey, winnerID *uint64, side winnerSide) *model.Fight {
	var old model.Fight
	if existing != nil {
		old = *existing
	}
	f := &model.Fight{
		SourceURL:  pick(in.SourceURL, old.SourceURL),
		EventID:    key.EventID,
		Fighter1ID: key.Fighter1ID,
		Fighter2ID: key.Fighter2ID,

		WeightClass:     pick(in.WeightClass, old.WeightClass),
		TitleFight:      *pick(in.TitleFight, &old.TitleFight),
		MainEvent:       *pick(in.MainEvent, &old.MainEvent),
		CardPosition:    pick(in.CardPosition, old.CardPosition),
		ScheduledRounds: pick(in.ScheduledRounds, old.ScheduledRounds),

		Completed: *pick(in.Completed, &old.Completed),
		Method:    pick(in.Method, old.Method),
		Round:     pick(in.Round, old.Round),
		Time:      pick(in.Time, old.Time),
	}

	switch {
	case side == winnerFirst || side == winnerSecond:
		f.WinnerID = winnerID
	case in.Completed != nil && *in.Completed && side == winnerNone:
		// 已结束但未给出胜者：平局或无结果
		f.WinnerID = nil
	case old.WinnerID != nil && (*old.WinnerID == key.Fighter1ID || *old.WinnerID == key.Fighter2ID):
		f.WinnerID = old.WinnerID
	}
	return f
}

// fightFingerprint 只包含快照可提供的内容；选手对已是规范顺序，上游调换顺序不会改变指纹
func fightFingerprint(f *model.Fight) string {
	return fingerprint.Of(fingerprint.Fields{
		"source_url":       f.SourceURL,
		"event_id":         f.EventID,
		"fighter1_id":      f.Fighter1ID,
		"fighter2_id":      f.Fighter2ID,
		"weight_class":     f.WeightClass,
		"title_fight":      f.TitleFight,
		"main_event":       f.MainEvent,
		"card_position":    f.CardPosition,
		"scheduled_rounds": f.ScheduledRounds,
		"completed":        f.Completed,
		"winner_id":        f.WinnerID,
		"method":           f.Method,
		"round":            f.Round,
		"time":             f.Time,
	})
}
