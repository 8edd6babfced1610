// services/archive.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

// ArchiveService exports each day's results to object storage as JSON lines.
type ArchiveService struct {
	DB     *gorm.DB
	Store  utils.ObjectStore
	Prefix string
}

func NewArchiveService(db *gorm.DB, store utils.ObjectStore) *ArchiveService {
	return &ArchiveService{DB: db, Store: store, Prefix: "game-results"}
}

// ArchiveKey is the object key for a UTC day.
func (a *ArchiveService) ArchiveKey(day time.Time) string {
	return fmt.Sprintf("%s/%s.jsonl", a.Prefix, day.UTC().Format("2006-01-02"))
}

// ExportDay uploads every result created on day (UTC). Empty days upload nothing.
func (a *ArchiveService) ExportDay(ctx context.Context, day time.Time) (string, int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	count := 0

	var batch []models.GameResult
	err := a.DB.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("id ASC").
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := enc.Encode(&batch[i]); err != nil {
					return err
				}
			}
			count += len(batch)
			return nil
		}).Error
	if err != nil {
		return "", 0, fmt.Errorf("read results for %s: %w", start.Format("2006-01-02"), err)
	}
	if count == 0 {
		return "", 0, nil
	}

	key := a.ArchiveKey(start)
	if err := a.Store.PutObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return "", 0, err
	}
	return key, count, nil
}
