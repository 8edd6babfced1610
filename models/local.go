package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// QueuedRecord is a game record that failed every save channel and waits
// in the local queue for the next sync. ID gives insertion order.
type QueuedRecord struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID       string         `gorm:"size:100;index;not null" json:"session_id"`
	Payload         datatypes.JSON `gorm:"not null" json:"payload"`
	BackupTimestamp int64          `gorm:"not null" json:"backup_timestamp"` // unix ms
}

func (QueuedRecord) TableName() string { return "backup_results" }

// Record decodes the stored payload.
func (q QueuedRecord) Record() (*GameRecord, error) {
	var rec GameRecord
	if err := json.Unmarshal(q.Payload, &rec); err != nil {
		return nil, fmt.Errorf("decode queued record %d: %w", q.ID, err)
	}
	return &rec, nil
}

// LocalStats is the non-authoritative lifetime stats cache shown without a round trip.
// CacheKey is "guest" or the user id.
type LocalStats struct {
	CacheKey   string     `gorm:"primaryKey;size:100" json:"cache_key"`
	TotalGames int64      `gorm:"not null;default:0" json:"total_games"`
	TotalWins  int64      `gorm:"not null;default:0" json:"total_wins"`
	TotalScore int64      `gorm:"not null;default:0" json:"total_score"`
	LastPlayed *time.Time `json:"last_played"`
}

func (LocalStats) TableName() string { return "local_stats" }

// LocalStatsSession marks a session already folded into LocalStats.
type LocalStatsSession struct {
	SessionID string    `gorm:"primaryKey;size:100" json:"session_id"`
	CacheKey  string    `gorm:"size:100;not null" json:"cache_key"`
	CreatedAt time.Time `json:"created_at"`
}

func (LocalStatsSession) TableName() string { return "local_stats_sessions" }
