// Package failures records diagnostics for tasks that failed. A failed task
// writes no output object, so the captured error kind and transform
// diagnostics stored here are the only trace it leaves. This is not job
// state: job state stays derivable from storage object existence alone.
package failures

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"clipforge/fault"
)

// Record is one failed task execution.
type Record struct {
	ID        string     `json:"id"`
	Task      string     `json:"task"`
	Kind      fault.Kind `json:"kind"`
	Error     string     `json:"error"`
	Timestamp time.Time  `json:"timestamp"`
}

var db *pebble.DB

// Init opens (or creates) the pebble store at dbPath.
func Init(dbPath string) error {
	var err error
	db, err = pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return errors.Wrap(err, "failed to open failure store")
	}
	return nil
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// Store records a failure under the task id. Older records with the same id
// are overwritten; the latest failure is the interesting one.
func Store(id, taskType string, failure error) error {
	if db == nil {
		return errors.New("failure store not initialized")
	}

	record := Record{
		ID:        id,
		Task:      taskType,
		Kind:      fault.KindOf(failure),
		Error:     failure.Error(),
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal failure record")
	}
	return db.Set([]byte(id), data, pebble.Sync)
}

// Get returns the failure record for an id, or nil if none exists.
func Get(id string) (*Record, error) {
	if db == nil {
		return nil, errors.New("failure store not initialized")
	}

	data, closer, err := db.Get([]byte(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read failure record")
	}
	defer closer.Close()

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal failure record")
	}
	return &record, nil
}

// List returns up to limit records; limit <= 0 returns everything.
func List(limit int) ([]Record, error) {
	if db == nil {
		return nil, errors.New("failure store not initialized")
	}

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create iterator")
	}
	defer iter.Close()

	var records []Record
	for iter.First(); iter.Valid(); iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iteration error")
	}
	return records, nil
}

// CleanupOldRecords removes records older than maxAge.
func CleanupOldRecords(maxAge time.Duration) error {
	if db == nil {
		return errors.New("failure store not initialized")
	}

	cutoff := time.Now().Add(-maxAge)

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return errors.Wrap(err, "failed to create iterator")
	}
	defer iter.Close()

	var stale [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue
		}
		if record.Timestamp.Before(cutoff) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			stale = append(stale, key)
		}
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "iteration error")
	}

	for _, key := range stale {
		if err := db.Delete(key, pebble.Sync); err != nil {
			return errors.Wrap(err, "failed to delete stale record")
		}
	}
	return nil
}
