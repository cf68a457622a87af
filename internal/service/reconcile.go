package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// observe 记录本次运行实际观测到的对阵
func (r *ingestRun) observe(key PairKey) {
	set, ok := r.observed[key.EventID]
	if !ok {
		set = make(map[PairKey]struct{})
		r.observed[key.EventID] = set
	}
	set[key] = struct{}{}
}

// markIncomplete 赛事下有对阵因引用缺失被跳过，本次观测不完整
func (r *ingestRun) markIncomplete(eventID uint64) {
	r.incomplete[eventID] = struct{}{}
}

// reconcileCancellations 推断取消：只作用于本次实际爬取过且库中存在的赛事；
// 范围内未结束、未被本次观测到的对阵全部标记取消；未出现在爬取范围里的赛事一律不动
func (r *ingestRun) reconcileCancellations(ctx context.Context) error {
	scope := r.snap.EventsInScope()
	if len(scope) == 0 {
		return nil
	}
	urls := make([]string, 0, len(scope))
	seen := make(map[string]struct{}, len(scope))
	for ref := range scope {
		u := r.resolver.EventRef(ref)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	events, err := r.tx.Events.ListBySourceURLs(ctx, urls)
	if err != nil {
		return fmt.Errorf("查询爬取范围内赛事失败: %w", err)
	}

	var toCancel []uint64
	for _, event := range events {
		fields := logrus.Fields{"run_id": r.runID, "event_id": event.ID, "source_url": event.SourceURL}
		observed := r.observed[event.ID]
		if _, partial := r.incomplete[event.ID]; partial {
			if r.keepOnSkippedFight {
				r.logger.WithFields(fields).Warn("赛事本次有对阵被跳过，按配置不推断取消")
				continue
			}
			r.logger.WithFields(fields).Warn("赛事本次有对阵被跳过，仍按已观测对阵推断取消")
		}
		if len(observed) == 0 && !event.Cancelled {
			if r.keepOnEmptyCard {
				r.logger.WithFields(fields).Warn("赛事本次未观测到任何对阵，按配置不推断取消")
				continue
			}
			r.logger.WithFields(fields).Warn("赛事本次未观测到任何对阵，其下未结束对阵将全部取消")
		}

		active, err := r.tx.Fights.ListActiveByEvent(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("查询赛事对阵失败: %w, event_id: %d", err, event.ID)
		}
		for _, f := range active {
			if _, ok := observed[NewPairKey(f.EventID, f.Fighter1ID, f.Fighter2ID)]; ok {
				continue
			}
			toCancel = append(toCancel, f.ID)
			r.logger.WithFields(fields).WithFields(logrus.Fields{
				"fight_id": f.ID,
				"pair":     NewPairKey(f.EventID, f.Fighter1ID, f.Fighter2ID).String(),
			}).Info("对阵未在本次爬取中出现，标记取消")
		}
	}

	n, err := r.tx.Fights.MarkCancelled(ctx, toCancel, r.now)
	if err != nil {
		return err
	}
	r.counts.FightsCancelled += int(n)
	return nil
}
