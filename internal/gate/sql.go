package gate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngestionLock is one client's admission counter row.
type IngestionLock struct {
	ClientKey string    `gorm:"primaryKey;type:varchar(255)"`
	Count     int       `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IngestionLock
func (IngestionLock) TableName() string {
	return "ingestion_locks"
}

// SQLStore is the shared backend used when multiple process instances serve
// the same clients. Atomicity comes from a row-level lock inside one
// transaction per acquire/release.
type SQLStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewSQLStore creates a SQL-backed admission store.
func NewSQLStore(db *gorm.DB, logger zerolog.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// lockRow takes a row lock on dialects that support SELECT FOR UPDATE.
// SQLite has no row locks and serializes writers on its own.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Acquire implements Store.
func (s *SQLStore) Acquire(ctx context.Context, clientKey string, limit int, ttl time.Duration) (bool, error) {
	acquired := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var lock IngestionLock
		err := lockRow(tx).
			Where("client_key = ?", clientKey).
			First(&lock).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			// FOR UPDATE locks nothing when the row does not exist yet, so
			// two first acquisitions can race here. ON CONFLICT DO NOTHING
			// makes the loser fall through to the locked increment path
			// instead of failing on the primary key.
			fresh := IngestionLock{ClientKey: clientKey, Count: 1, ExpiresAt: now.Add(ttl)}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				acquired = true
				return nil
			}
			err = lockRow(tx).
				Where("client_key = ?", clientKey).
				First(&lock).Error
		}
		if err != nil {
			return err
		}

		// An expired row is treated as absent.
		if !lock.ExpiresAt.After(now) {
			lock.Count = 0
		}

		if lock.Count >= limit {
			return nil
		}

		lock.Count++
		lock.ExpiresAt = now.Add(ttl)
		if err := tx.Save(&lock).Error; err != nil {
			return err
		}
		acquired = true
		return nil
	})

	return acquired, err
}

// Release implements Store.
func (s *SQLStore) Release(ctx context.Context, clientKey string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lock IngestionLock
		err := lockRow(tx).
			Where("client_key = ?", clientKey).
			First(&lock).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if lock.Count <= 1 {
			return tx.Delete(&lock).Error
		}

		lock.Count--
		return tx.Save(&lock).Error
	})
}

// StartSweeper deletes expired rows on an interval until the context is
// cancelled. The delete touches only rows already past expiry, so it never
// contends with live acquisitions.
func (s *SQLStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				result := s.db.WithContext(ctx).
					Where("expires_at <= ?", time.Now().UTC()).
					Delete(&IngestionLock{})
				if result.Error != nil {
					s.logger.Warn().Err(result.Error).Msg("admission lock sweep failed")
				} else if result.RowsAffected > 0 {
					s.logger.Debug().Int64("swept", result.RowsAffected).Msg("expired admission locks removed")
				}
			}
		}
	}()
}
