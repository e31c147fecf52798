package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "confluence-lifecycle/internal/common"
	. "confluence-lifecycle/internal/interfaces"
	"confluence-lifecycle/internal/models"

	bolt "go.etcd.io/bbolt"
)

const (
	runsBucket     = "runs"
	metadataBucket = "metadata"
	lastRunKey     = "last_run"
)

type runStore struct {
	db     *bolt.DB
	config *StorageConfig
}

// NewRunStore opens the run-history database, creating it and its
// buckets as needed.
func NewRunStore(config *StorageConfig) (RunStore, error) {
	dbDir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(config.DatabasePath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metadataBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &runStore{
		db:     db,
		config: config,
	}, nil
}

func (s *runStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run keyed by space and finish time. Bolt keys are
// byte-ordered, so RFC3339 keys keep runs in chronological order.
func (s *runStore) SaveRun(run *models.RunRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucket))

		key := []byte(fmt.Sprintf("%s:%s", run.Space, run.FinishedAt.UTC().Format(time.RFC3339)))
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to marshal run: %w", err)
		}

		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		metaBucket := tx.Bucket([]byte(metadataBucket))
		metaKey := []byte(fmt.Sprintf("%s:%s", run.Space, lastRunKey))
		return metaBucket.Put(metaKey, key)
	})
}

// LastRun returns the most recently saved run for a space, or nil when
// no run has been recorded.
func (s *runStore) LastRun(space string) (*models.RunRecord, error) {
	var run *models.RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		metaBucket := tx.Bucket([]byte(metadataBucket))
		metaKey := []byte(fmt.Sprintf("%s:%s", space, lastRunKey))

		runKey := metaBucket.Get(metaKey)
		if runKey == nil {
			return nil
		}

		data := tx.Bucket([]byte(runsBucket)).Get(runKey)
		if data == nil {
			return nil
		}

		var record models.RunRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to decode run %s: %w", runKey, err)
		}
		run = &record
		return nil
	})

	return run, err
}

// LoadRuns returns all recorded runs for a space in chronological order.
func (s *runStore) LoadRuns(space string) ([]*models.RunRecord, error) {
	var runs []*models.RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runsBucket))
		prefix := []byte(space + ":")

		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, v = c.Next() {
			var record models.RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			runs = append(runs, &record)
		}

		return nil
	})

	return runs, err
}
