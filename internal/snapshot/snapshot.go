// Package snapshot 定义爬虫快照的强类型结构与入库前校验。
// 字段名与爬虫推送的 JSON 保持一致（sourceUrl、fighter1Id、scrapedEventUrls ...）。
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Snapshot 一次爬取的完整快照
type Snapshot struct {
	Events           []Event   `json:"events" validate:"dive"`
	Fighters         []Fighter `json:"fighters" validate:"dive"`
	Fights           []Fight   `json:"fights" validate:"dive"`
	ScrapedEventURLs []string  `json:"scrapedEventUrls" validate:"dive,required"` // 本次实际访问过的赛事 sourceUrl，决定取消推断范围
}

// Event 快照中的赛事。可选字段为指针：nil 表示爬虫未提供，入库时回退到库内已有值
type Event struct {
	ID        string  `json:"id" validate:"required,max=256"`
	SourceURL string  `json:"sourceUrl" validate:"required,max=512"`
	Name      string  `json:"name" validate:"required,max=256"`
	Date      string  `json:"date" validate:"required,isodate"`
	Venue     *string `json:"venue,omitempty" validate:"omitempty,max=256"`
	Location  *string `json:"location,omitempty" validate:"omitempty,max=256"`
	Completed *bool   `json:"completed,omitempty"`
	Cancelled *bool   `json:"cancelled,omitempty"`
}

// Fighter 快照中的选手
type Fighter struct {
	ID        string `json:"id" validate:"required,max=256"`
	SourceURL string `json:"sourceUrl" validate:"required,max=512"`
	Name      string `json:"name" validate:"required,max=128"`

	Record *string `json:"record,omitempty" validate:"omitempty,max=32"`
	Wins   *int    `json:"wins,omitempty" validate:"omitempty,gte=0"`
	Losses *int    `json:"losses,omitempty" validate:"omitempty,gte=0"`
	Draws  *int    `json:"draws,omitempty" validate:"omitempty,gte=0"`

	Height      *string `json:"height,omitempty" validate:"omitempty,max=16"`
	WeightLbs   *int    `json:"weightLbs,omitempty" validate:"omitempty,gte=0"`
	Reach       *string `json:"reach,omitempty" validate:"omitempty,max=16"`
	ReachInches *int    `json:"reachInches,omitempty" validate:"omitempty,gte=0"`
	Stance      *string `json:"stance,omitempty" validate:"omitempty,max=32"`
	DOB         *string `json:"dob,omitempty" validate:"omitempty,max=32"`

	SigStrikesLandedPerMin   *float64 `json:"significantStrikesLandedPerMinute,omitempty" validate:"omitempty,gte=0"`
	StrikingAccuracyPct      *float64 `json:"strikingAccuracyPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	SigStrikesAbsorbedPerMin *float64 `json:"significantStrikesAbsorbedPerMinute,omitempty" validate:"omitempty,gte=0"`
	StrikingDefensePct       *float64 `json:"strikingDefensePercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	TakedownAverage          *float64 `json:"takedownAverage,omitempty" validate:"omitempty,gte=0"`
	TakedownAccuracyPct      *float64 `json:"takedownAccuracyPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	TakedownDefensePct       *float64 `json:"takedownDefensePercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	SubmissionAverage        *float64 `json:"submissionAverage,omitempty" validate:"omitempty,gte=0"`
	AvgFightTimeSeconds      *int     `json:"averageFightTimeSeconds,omitempty" validate:"omitempty,gte=0"`
	WinsByKO                 *int     `json:"winsByKO,omitempty" validate:"omitempty,gte=0"`
	WinsBySubmission         *int     `json:"winsBySubmission,omitempty" validate:"omitempty,gte=0"`
	WinsByDecision           *int     `json:"winsByDecision,omitempty" validate:"omitempty,gte=0"`
	LossesByKO               *int     `json:"lossesByKO,omitempty" validate:"omitempty,gte=0"`
	LossesBySubmission       *int     `json:"lossesBySubmission,omitempty" validate:"omitempty,gte=0"`
	LossesByDecision         *int     `json:"lossesByDecision,omitempty" validate:"omitempty,gte=0"`
	FinishRate               *float64 `json:"finishRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	KOPercentage             *float64 `json:"koPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	SubmissionPercentage     *float64 `json:"submissionPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Fight 快照中的对阵。EventID/Fighter1ID/Fighter2ID/WinnerID 为爬虫侧 id（或直接为 sourceUrl）
type Fight struct {
	ID         string  `json:"id" validate:"required,max=512"`
	SourceURL  *string `json:"sourceUrl,omitempty" validate:"omitempty,max=512"`
	EventID    string  `json:"eventId" validate:"required"`
	Fighter1ID string  `json:"fighter1Id" validate:"required"`
	Fighter2ID string  `json:"fighter2Id" validate:"required,nefield=Fighter1ID"`

	WeightClass     *string `json:"weightClass,omitempty" validate:"omitempty,max=64"`
	TitleFight      *bool   `json:"titleFight,omitempty"`
	MainEvent       *bool   `json:"mainEvent,omitempty"`
	CardPosition    *string `json:"cardPosition,omitempty" validate:"omitempty,max=32"`
	ScheduledRounds *int    `json:"scheduledRounds,omitempty" validate:"omitempty,oneof=3 5"`

	Completed *bool   `json:"completed,omitempty"`
	WinnerID  *string `json:"winnerId,omitempty"`
	Method    *string `json:"method,omitempty" validate:"omitempty,max=32"`
	Round     *int    `json:"round,omitempty" validate:"omitempty,min=1,max=5"`
	Time      *string `json:"time,omitempty" validate:"omitempty,fighttime"`
}

// Decode 解析 JSON 快照
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("解析快照JSON失败: %w", err)
	}
	// 快照对象之后只允许空白
	switch _, err := dec.Token(); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, fmt.Errorf("解析快照JSON失败: 快照对象之后存在多余内容: %w", err)
	default:
		return nil, errors.New("解析快照JSON失败: 快照对象之后存在多余内容")
	}
	return &s, nil
}

// 爬虫可能给出完整 ISO 8601 时间或仅日期
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
}

// ParseDate 解析赛事日期，统一转为 UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法识别的日期格式: %q", s)
}

// EventsInScope 返回本次运行的取消推断范围（去重后的 sourceUrl 集合）
func (s *Snapshot) EventsInScope() map[string]struct{} {
	scope := make(map[string]struct{}, len(s.ScrapedEventURLs))
	for _, u := range s.ScrapedEventURLs {
		u = strings.TrimSpace(u)
		if u != "" {
			scope[u] = struct{}{}
		}
	}
	return scope
}
