// gameclient/queue.go
package gameclient

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const DefaultQueueCapacity = 10

// Queue is the bounded local buffer for records no channel accepted. It lives in
// SQLite so it survives restarts. When full, the oldest entry is evicted.
type Queue struct {
	db       *gorm.DB
	capacity int
	now      func() time.Time
	mu       sync.Mutex
}

func NewQueue(db *gorm.DB, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{db: db, capacity: capacity, now: time.Now}
}

func (q *Queue) Capacity() int { return q.capacity }

// Enqueue appends rec, evicting the oldest entries first if the queue is full.
func (q *Queue) Enqueue(rec *models.GameRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode queued record: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	return q.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.QueuedRecord{}).Count(&count).Error; err != nil {
			return err
		}
		if overflow := int(count) - q.capacity + 1; overflow > 0 {
			var oldest []uint64
			if err := tx.Model(&models.QueuedRecord{}).
				Order("id ASC").Limit(overflow).Pluck("id", &oldest).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.QueuedRecord{}, oldest).Error; err != nil {
				return err
			}
			utils.Log.Warnw("[QUEUE] 🗑️ Queue full, evicted oldest entries", "evicted", len(oldest))
		}
		return tx.Create(&models.QueuedRecord{
			SessionID:       rec.SessionID,
			Payload:         payload,
			BackupTimestamp: q.now().UnixMilli(),
		}).Error
	})
}

// DrainAll returns every entry oldest first without removing any.
func (q *Queue) DrainAll() ([]models.QueuedRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var entries []models.QueuedRecord
	if err := q.db.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every entry.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.db.Where("1 = 1").Delete(&models.QueuedRecord{}).Error
}

// RemoveThrough removes entries with id <= lastID, keeping anything queued after a drain.
func (q *Queue) RemoveThrough(lastID uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.db.Where("id <= ?", lastID).Delete(&models.QueuedRecord{}).Error
}

// Len is the number of queued records.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var count int64
	if err := q.db.Model(&models.QueuedRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
