package model

import (
	"time"

	"gorm.io/datatypes"
)

// Fighter 选手表；source_url 为上游稳定定位串（ExternalRef）
type Fighter struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SourceURL string `gorm:"column:source_url;type:varchar(512);uniqueIndex;not null;comment:上游定位串"`
	Name      string `gorm:"column:name;type:varchar(128);not null;comment:选手姓名"`

	Record *string `gorm:"column:record;type:varchar(32);comment:战绩W-L-D"`
	Wins   *int    `gorm:"column:wins;type:int;comment:胜场"`
	Losses *int    `gorm:"column:losses;type:int;comment:负场"`
	Draws  *int    `gorm:"column:draws;type:int;comment:平局"`

	Height      *string `gorm:"column:height;type:varchar(16);comment:身高"`
	WeightLbs   *int    `gorm:"column:weight_lbs;type:int;comment:体重(磅)"`
	Reach       *string `gorm:"column:reach;type:varchar(16);comment:臂展"`
	ReachInches *int    `gorm:"column:reach_inches;type:int;comment:臂展(英寸)"`
	Stance      *string `gorm:"column:stance;type:varchar(32);comment:站架"`
	DOB         *string `gorm:"column:dob;type:varchar(32);comment:出生日期"`

	SigStrikesLandedPerMin   *float64 `gorm:"column:sig_strikes_landed_per_min;type:double precision"`
	StrikingAccuracyPct      *float64 `gorm:"column:striking_accuracy_pct;type:double precision"`
	SigStrikesAbsorbedPerMin *float64 `gorm:"column:sig_strikes_absorbed_per_min;type:double precision"`
	StrikingDefensePct       *float64 `gorm:"column:striking_defense_pct;type:double precision"`
	TakedownAverage          *float64 `gorm:"column:takedown_average;type:double precision"`
	TakedownAccuracyPct      *float64 `gorm:"column:takedown_accuracy_pct;type:double precision"`
	TakedownDefensePct       *float64 `gorm:"column:takedown_defense_pct;type:double precision"`
	SubmissionAverage        *float64 `gorm:"column:submission_average;type:double precision"`
	AvgFightTimeSeconds      *int     `gorm:"column:avg_fight_time_seconds;type:int"`
	WinsByKO                 *int     `gorm:"column:wins_by_ko;type:int"`
	WinsBySubmission         *int     `gorm:"column:wins_by_submission;type:int"`
	WinsByDecision           *int     `gorm:"column:wins_by_decision;type:int"`
	LossesByKO               *int     `gorm:"column:losses_by_ko;type:int"`
	LossesBySubmission       *int     `gorm:"column:losses_by_submission;type:int"`
	LossesByDecision         *int     `gorm:"column:losses_by_decision;type:int"`
	FinishRate               *float64 `gorm:"column:finish_rate;type:double precision"`
	KOPercentage             *float64 `gorm:"column:ko_percentage;type:double precision"`
	SubmissionPercentage     *float64 `gorm:"column:submission_percentage;type:double precision"`

	ContentHash string    `gorm:"column:content_hash;type:varchar(64);not null;comment:内容指纹"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;type:timestamp;not null;comment:最近一次写入时间"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;autoUpdateTime;comment:更新时间"`
}

// Event 赛事表
type Event struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SourceURL string    `gorm:"column:source_url;type:varchar(512);uniqueIndex;not null;comment:上游定位串"`
	Name      string    `gorm:"column:name;type:varchar(256);not null;comment:赛事名称"`
	Date      time.Time `gorm:"column:date;type:timestamp;not null;comment:比赛日期"`
	Venue     *string   `gorm:"column:venue;type:varchar(256);comment:场馆"`
	Location  *string   `gorm:"column:location;type:varchar(256);comment:城市/国家"`
	Completed bool      `gorm:"column:completed;type:boolean;default:false;comment:是否已结束"`
	Cancelled bool      `gorm:"column:cancelled;type:boolean;default:false;comment:是否取消"`

	ContentHash string    `gorm:"column:content_hash;type:varchar(64);not null;comment:内容指纹"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;type:timestamp;not null;comment:最近一次写入时间"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;autoUpdateTime;comment:更新时间"`
}

// Fight 对阵表。(event_id, fighter1_id, fighter2_id) 唯一，且 fighter1_id < fighter2_id（规范顺序）
type Fight struct {
	ID         uint64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SourceURL  *string `gorm:"column:source_url;type:varchar(512);index;comment:上游定位串（可空）"`
	EventID    uint64  `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uk_fight_event_pair,priority:1;comment:关联赛事ID"`
	Fighter1ID uint64  `gorm:"column:fighter1_id;type:bigint;not null;uniqueIndex:uk_fight_event_pair,priority:2;comment:规范顺序较小的选手ID"`
	Fighter2ID uint64  `gorm:"column:fighter2_id;type:bigint;not null;uniqueIndex:uk_fight_event_pair,priority:3;comment:规范顺序较大的选手ID"`

	WeightClass     *string `gorm:"column:weight_class;type:varchar(64);comment:级别"`
	TitleFight      bool    `gorm:"column:title_fight;type:boolean;default:false;comment:是否头衔战"`
	MainEvent       bool    `gorm:"column:main_event;type:boolean;default:false;comment:是否主赛"`
	CardPosition    *string `gorm:"column:card_position;type:varchar(32);comment:卡位"`
	ScheduledRounds *int    `gorm:"column:scheduled_rounds;type:int;comment:计划回合数"`

	Completed bool    `gorm:"column:completed;type:boolean;default:false;comment:是否已结束"`
	WinnerID  *uint64 `gorm:"column:winner_id;type:bigint;comment:胜者选手ID"`
	Method    *string `gorm:"column:method;type:varchar(32);comment:终结方式"`
	Round     *int    `gorm:"column:round;type:int;comment:结束回合"`
	Time      *string `gorm:"column:time;type:varchar(8);comment:结束时间M:SS"`

	IsCancelled bool      `gorm:"column:is_cancelled;type:boolean;not null;default:false;index;comment:是否推断为取消"`
	ContentHash string    `gorm:"column:content_hash;type:varchar(64);not null;comment:内容指纹"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;type:timestamp;not null;comment:最近一次写入时间"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;autoUpdateTime;comment:更新时间"`
}

// 运行台账状态
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// IngestionRun 入库运行台账（只追加）
type IngestionRun struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	RunUUID         string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一运行ID" json:"runId"`
	StartedAt       time.Time      `gorm:"column:started_at;type:timestamp;not null;comment:开始时间" json:"startedAt"`
	FinishedAt      time.Time      `gorm:"column:finished_at;type:timestamp;not null;comment:结束时间" json:"finishedAt"`
	Status          string         `gorm:"column:status;type:varchar(16);not null;index;comment:success/failure" json:"status"`
	FightersAdded   int            `gorm:"column:fighters_added;type:int;default:0" json:"fightersAdded"`
	FightersUpdated int            `gorm:"column:fighters_updated;type:int;default:0" json:"fightersUpdated"`
	EventsAdded     int            `gorm:"column:events_added;type:int;default:0" json:"eventsAdded"`
	EventsUpdated   int            `gorm:"column:events_updated;type:int;default:0" json:"eventsUpdated"`
	FightsAdded     int            `gorm:"column:fights_added;type:int;default:0" json:"fightsAdded"`
	FightsUpdated   int            `gorm:"column:fights_updated;type:int;default:0" json:"fightsUpdated"`
	FightsCancelled int            `gorm:"column:fights_cancelled;type:int;default:0" json:"fightsCancelled"`
	FightsSkipped   int            `gorm:"column:fights_skipped;type:int;default:0" json:"fightsSkipped"`
	ErrorMessage    *string        `gorm:"column:error_message;type:text;comment:失败原因" json:"errorMessage,omitempty"`
	Details         datatypes.JSON `gorm:"column:details;type:jsonb;comment:跳过明细等" json:"details,omitempty"`
}

func (Fighter) TableName() string      { return "fighters" }
func (Event) TableName() string        { return "events" }
func (Fight) TableName() string        { return "fights" }
func (IngestionRun) TableName() string { return "ingestion_runs" }
