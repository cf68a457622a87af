package service

import (
	"context"
	"errors"
	"strings"

	"FightSync/internal/repository"
	"FightSync/internal/snapshot"
)

// identityResolver 把快照引用翻译为内部 ID。
// 对阵里的 eventId/fighterXId 是爬虫侧 id，先经快照自身记录映射到 sourceUrl（ExternalRef）；
// 快照里找不到对应记录时，把该值本身当作 ExternalRef
type identityResolver struct {
	tx *repository.Store

	fighterRefs map[string]string // 爬虫 id → sourceUrl
	eventRefs   map[string]string

	fighterIDs map[string]uint64 // sourceUrl → 内部 ID（本次运行内缓存）
	eventIDs   map[string]uint64
}

func newIdentityResolver(tx *repository.Store, snap *snapshot.Snapshot) *identityResolver {
	r := &identityResolver{
		tx:          tx,
		fighterRefs: make(map[string]string, len(snap.Fighters)),
		eventRefs:   make(map[string]string, len(snap.Events)),
		fighterIDs:  make(map[string]uint64),
		eventIDs:    make(map[string]uint64),
	}
	for _, f := range snap.Fighters {
		r.fighterRefs[f.ID] = f.SourceURL
	}
	for _, e := range snap.Events {
		r.eventRefs[e.ID] = e.SourceURL
	}
	return r
}

// FighterRef 爬虫侧选手引用 → ExternalRef
func (r *identityResolver) FighterRef(ref string) string {
	return externalRef(r.fighterRefs, ref)
}

// EventRef 爬虫侧赛事引用 → ExternalRef
func (r *identityResolver) EventRef(ref string) string {
	return externalRef(r.eventRefs, ref)
}

func externalRef(m map[string]string, ref string) string {
	ref = strings.TrimSpace(ref)
	if u, ok := m[ref]; ok {
		return u
	}
	return ref
}

// rememberFighter 写库后记录 ID，后续对阵解析不再回查
func (r *identityResolver) rememberFighter(sourceURL string, id uint64) {
	r.fighterIDs[sourceURL] = id
}

func (r *identityResolver) rememberEvent(sourceURL string, id uint64) {
	r.eventIDs[sourceURL] = id
}

// Fighter 解析选手引用；ok=false 表示库中不存在
func (r *identityResolver) Fighter(ctx context.Context, ref string) (uint64, bool, error) {
	url := r.FighterRef(ref)
	if id, ok := r.fighterIDs[url]; ok {
		return id, true, nil
	}
	f, err := r.tx.Fighters.GetBySourceURL(ctx, url)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	r.fighterIDs[url] = f.ID
	return f.ID, true, nil
}

// Event 解析赛事引用；ok=false 表示库中不存在
func (r *identityResolver) Event(ctx context.Context, ref string) (uint64, bool, error) {
	url := r.EventRef(ref)
	if id, ok := r.eventIDs[url]; ok {
		return id, true, nil
	}
	e, err := r.tx.Events.GetBySourceURL(ctx, url)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	r.eventIDs[url] = e.ID
	return e.ID, true, nil
}
