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

// upsertEvents 依次合并快照中的赛事
func (r *ingestRun) upsertEvents(ctx context.Context) error {
	for i := range r.snap.Events {
		in := r.snap.Events[i]
		id, action, err := r.upsertEvent(ctx, in)
		if err != nil {
			return err
		}
		r.resolver.rememberEvent(in.SourceURL, id)
		r.logger.WithFields(logrus.Fields{"run_id": r.runID, "source_url": in.SourceURL, "action": action.String()}).Debug("赛事已合并")
		switch action {
		case actionCreated:
			r.counts.EventsAdded++
		case actionUpdated:
			r.counts.EventsUpdated++
		}
	}
	return nil
}

func (r *ingestRun) upsertEvent(ctx context.Context, in snapshot.Event) (uint64, writeAction, error) {
	date, err := snapshot.ParseDate(in.Date)
	if err != nil {
		return 0, actionNone, fmt.Errorf("赛事日期非法: %w, source_url: %s", err, in.SourceURL)
	}
	existing, err := r.tx.Events.GetBySourceURL(ctx, in.SourceURL)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, actionNone, fmt.Errorf("查询赛事失败: %w, source_url: %s", err, in.SourceURL)
	}

	merged := mergeEvent(existing, in)
	merged.Date = date
	hash := eventFingerprint(merged)
	if existing != nil && fingerprint.Equal(existing.ContentHash, hash) {
		return existing.ID, actionNone, nil
	}

	merged.ContentHash = hash
	merged.LastSeenAt = r.now
	if err := r.tx.Events.Upsert(ctx, merged); err != nil {
		return 0, actionNone, err
	}
	if existing == nil {
		return merged.ID, actionCreated, nil
	}
	return merged.ID, actionUpdated, nil
}

func mergeEvent(existing *model.Event, in snapshot.Event) *model.Event {
	var old model.Event
	if existing != nil {
		old = *existing
	}
	return &model.Event{
		SourceURL: in.SourceURL,
		Name:      in.Name,
		Venue:     pick(in.Venue, old.Venue),
		Location:  pick(in.Location, old.Location),
		Completed: *pick(in.Completed, &old.Completed),
		Cancelled: *pick(in.Cancelled, &old.Cancelled),
	}
}

func eventFingerprint(e *model.Event) string {
	return fingerprint.Of(fingerprint.Fields{
		"source_url": e.SourceURL,
		"name":       e.Name,
		"date":       e.Date.UTC(),
		"venue":      e.Venue,
		"location":   e.Location,
		"completed":  e.Completed,
		"cancelled":  e.Cancelled,
	})
}
