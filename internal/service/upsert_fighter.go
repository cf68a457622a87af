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

// writeAction 单条记录的写入结果
type writeAction int

const (
	actionNone writeAction = iota
	actionCreated
	actionUpdated
)

func (a writeAction) String() string {
	switch a {
	case actionCreated:
		return "created"
	case actionUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// pick 快照给出值则用快照值，否则回退到库内已有值
func pick[T any](incoming, stored *T) *T {
	if incoming != nil {
		return incoming
	}
	return stored
}

// upsertFighters 依次合并快照中的选手
func (r *ingestRun) upsertFighters(ctx context.Context) error {
	for i := range r.snap.Fighters {
		in := r.snap.Fighters[i]
		id, action, err := r.upsertFighter(ctx, in)
		if err != nil {
			return err
		}
		r.resolver.rememberFighter(in.SourceURL, id)
		r.logger.WithFields(logrus.Fields{"run_id": r.runID, "source_url": in.SourceURL, "action": action.String()}).Debug("选手已合并")
		switch action {
		case actionCreated:
			r.counts.FightersAdded++
		case actionUpdated:
			r.counts.FightersUpdated++
		}
	}
	return nil
}

// upsertFighter 不存在则创建；指纹不同则按字段回退合并后更新；指纹相同不写库
func (r *ingestRun) upsertFighter(ctx context.Context, in snapshot.Fighter) (uint64, writeAction, error) {
	existing, err := r.tx.Fighters.GetBySourceURL(ctx, in.SourceURL)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, actionNone, fmt.Errorf("查询选手失败: %w, source_url: %s", err, in.SourceURL)
	}

	merged := mergeFighter(existing, in)
	hash := fighterFingerprint(merged)
	if existing != nil && fingerprint.Equal(existing.ContentHash, hash) {
		return existing.ID, actionNone, nil
	}

	merged.ContentHash = hash
	merged.LastSeenAt = r.now
	if err := r.tx.Fighters.Upsert(ctx, merged); err != nil {
		return 0, actionNone, err
	}
	if existing == nil {
		return merged.ID, actionCreated, nil
	}
	return merged.ID, actionUpdated, nil
}

func mergeFighter(existing *model.Fighter, in snapshot.Fighter) *model.Fighter {
	var old model.Fighter
	if existing != nil {
		old = *existing
	}
	return &model.Fighter{
		SourceURL: in.SourceURL,
		Name:      in.Name,

		Record: pick(in.Record, old.Record),
		Wins:   pick(in.Wins, old.Wins),
		Losses: pick(in.Losses, old.Losses),
		Draws:  pick(in.Draws, old.Draws),

		Height:      pick(in.Height, old.Height),
		WeightLbs:   pick(in.WeightLbs, old.WeightLbs),
		Reach:       pick(in.Reach, old.Reach),
		ReachInches: pick(in.ReachInches, old.ReachInches),
		Stance:      pick(in.Stance, old.Stance),
		DOB:         pick(in.DOB, old.DOB),

		SigStrikesLandedPerMin:   pick(in.SigStrikesLandedPerMin, old.SigStrikesLandedPerMin),
		StrikingAccuracyPct:      pick(in.StrikingAccuracyPct, old.StrikingAccuracyPct),
		SigStrikesAbsorbedPerMin: pick(in.SigStrikesAbsorbedPerMin, old.SigStrikesAbsorbedPerMin),
		StrikingDefensePct:       pick(in.StrikingDefensePct, old.StrikingDefensePct),
		TakedownAverage:          pick(in.TakedownAverage, old.TakedownAverage),
		TakedownAccuracyPct:      pick(in.TakedownAccuracyPct, old.TakedownAccuracyPct),
		TakedownDefensePct:       pick(in.TakedownDefensePct, old.TakedownDefensePct),
		SubmissionAverage:        pick(in.SubmissionAverage, old.SubmissionAverage),
		AvgFightTimeSeconds:      pick(in.AvgFightTimeSeconds, old.AvgFightTimeSeconds),
		WinsByKO:                 pick(in.WinsByKO, old.WinsByKO),
		WinsBySubmission:         pick(in.WinsBySubmission, old.WinsBySubmission),
		WinsByDecision:           pick(in.WinsByDecision, old.WinsByDecision),
		LossesByKO:               pick(in.LossesByKO, old.LossesByKO),
		LossesBySubmission:       pick(in.LossesBySubmission, old.LossesBySubmission),
		LossesByDecision:         pick(in.LossesByDecision, old.LossesByDecision),
		FinishRate:               pick(in.FinishRate, old.FinishRate),
		KOPercentage:             pick(in.KOPercentage, old.KOPercentage),
		SubmissionPercentage:     pick(in.SubmissionPercentage, old.SubmissionPercentage),
	}
}

func fighterFingerprint(f *model.Fighter) string {
	return fingerprint.Of(fingerprint.Fields{
		"source_url":                   f.SourceURL,
		"name":                         f.Name,
		"record":                       f.Record,
		"wins":                         f.Wins,
		"losses":                       f.Losses,
		"draws":                        f.Draws,
		"height":                       f.Height,
		"weight_lbs":                   f.WeightLbs,
		"reach":                        f.Reach,
		"reach_inches":                 f.ReachInches,
		"stance":                       f.Stance,
		"dob":                          f.DOB,
		"sig_strikes_landed_per_min":   f.SigStrikesLandedPerMin,
		"striking_accuracy_pct":        f.StrikingAccuracyPct,
		"sig_strikes_absorbed_per_min": f.SigStrikesAbsorbedPerMin,
		"striking_defense_pct":         f.StrikingDefensePct,
		"takedown_average":             f.TakedownAverage,
		"takedown_accuracy_pct":        f.TakedownAccuracyPct,
		"takedown_defense_pct":         f.TakedownDefensePct,
		"submission_average":           f.SubmissionAverage,
		"avg_fight_time_seconds":       f.AvgFightTimeSeconds,
		"wins_by_ko":                   f.WinsByKO,
		"wins_by_submission":           f.WinsBySubmission,
		"wins_by_decision":             f.WinsByDecision,
		"losses_by_ko":                 f.LossesByKO,
		"losses_by_submission":         f.LossesBySubmission,
		"losses_by_decision":           f.LossesByDecision,
		"finish_rate":                  f.FinishRate,
		"ko_percentage":                f.KOPercentage,
		"submission_percentage":        f.SubmissionPercentage,
	})
}
