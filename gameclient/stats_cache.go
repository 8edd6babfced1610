package gameclient

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lytic-game-system/models"
)

const guestStatsKey = "guest"

// StatsCache is the non-authoritative lifetime stats the CLI shows without a round trip.
type StatsCache struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewStatsCache(db *gorm.DB) *StatsCache {
	return &StatsCache{db: db}
}

func statsKey(userID *string) string {
	if userID == nil || *userID == "" {
		return guestStatsKey
	}
	return *userID
}

// Record folds a delivered game into the cached totals. Each session_id is counted
// once; replays of the same session leave the totals unchanged.
func (s *StatsCache) Record(rec *models.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey(rec.UserID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		mark := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.LocalStatsSession{SessionID: rec.SessionID, CacheKey: key})
		if mark.Error != nil {
			return mark.Error
		}
		if mark.RowsAffected == 0 {
			return nil
		}

		stats := models.LocalStats{CacheKey: key}
		if err := tx.FirstOrInit(&stats, models.LocalStats{CacheKey: stats.CacheKey}).Error; err != nil {
			return err
		}
		stats.TotalGames++
		if rec.Completed {
			stats.TotalWins++
			stats.TotalScore += rec.Score
		}
		played := time.Now().UTC()
		if rec.GameEndedAt != nil {
			played = rec.GameEndedAt.UTC()
		}
		stats.LastPlayed = &played
		return tx.Save(&stats).Error
	})
}

// Get returns the cached totals for a player ("" means guest). Missing rows read as zero.
func (s *StatsCache) Get(userID string) (models.LocalStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey(&userID)
	var stats models.LocalStats
	err := s.db.First(&stats, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LocalStats{CacheKey: key}, nil
	}
	return stats, err
}
