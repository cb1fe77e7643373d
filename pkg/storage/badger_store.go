package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/log"
	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

const (
	guideKeyPrefix = "guide:"   // Prefix for guide variant keys in DB
	slideKeyPrefix = "slide:"   // Prefix for slide variant keys in DB
	buildDBDir     = "build_db" // Suffix of the Badger directory within stateDir
)

// BadgerStore implements the BuildStore interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	ctx      context.Context // Parent context
	keyCount atomic.Int64    // Cached key count for O(1) Count
}

var _ BuildStore = (*BadgerStore)(nil)

// NewBadgerStore opens the build database for a source directory under stateDir.
// With fresh set, any existing database for that source directory is removed first.
func NewBadgerStore(ctx context.Context, stateDir, sourceDir string, fresh bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
		ctx: ctx,
	}

	// One database per source tree
	dbDirName := utils.SanitizeFilename(filepath.Clean(sourceDir)) + "_" + buildDBDir
	dbPath := filepath.Join(stateDir, dbDirName)

	if fresh {
		logger.Warnf("Fresh flag is set. REMOVING existing build database: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			logger.Errorf("Failed to remove existing build database %s: %v", dbPath, err)
		}
	}

	logger.Infof("Opening build database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest build of a target matters

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing build records: %v", err)
	} else {
		store.keyCount.Store(int64(count))
		logger.Debugf("Build database holds %d records", count)
	}

	return store, nil
}

func keyFor(variant models.Variant, output string) ([]byte, error) {
	switch variant {
	case models.VariantGuide:
		return []byte(guideKeyPrefix + output), nil
	case models.VariantSlide:
		return []byte(slideKeyPrefix + output), nil
	}
	return nil, fmt.Errorf("%w: unknown variant '%s'", utils.ErrDatabase, variant)
}

func splitKey(key []byte) (models.Variant, string, bool) {
	switch {
	case bytes.HasPrefix(key, []byte(guideKeyPrefix)):
		return models.VariantGuide, string(key[len(guideKeyPrefix):]), true
	case bytes.HasPrefix(key, []byte(slideKeyPrefix)):
		return models.VariantSlide, string(key[len(slideKeyPrefix):]), true
	}
	return "", "", false
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// Record implements the BuildRecorder interface
func (s *BadgerStore) Record(variant models.Variant, output string, entry *models.BuildEntry) error {
	key, err := keyFor(variant, output)
	if err != nil {
		return err
	}
	if entry.BuiltAt.IsZero() {
		entry.BuiltAt = time.Now()
	}
	entry.Variant = variant

	data, err := json.Marshal(entry)
	if err != nil {
		return utils.WrapErrorf(utils.ErrParsing, "encoding JSON build entry for '%s': %v", string(key), err)
	}

	added := false
	err = s.dbUpdate(func(txn *badger.Txn) error {
		added = false
		_, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			added = true
		} else if errGet != nil {
			return errGet
		}
		return txn.SetEntry(badger.NewEntry(key, data))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in Record: %v", err)
		return fmt.Errorf("%w: recording build of '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if added {
		s.keyCount.Add(1)
	}
	s.log.Debugf("Recorded %s as %s", string(key), entry.Status)
	return nil
}

// CheckTarget implements the BuildLookup interface
func (s *BadgerStore) CheckTarget(variant models.Variant, output string) (models.BuildStatus, *models.BuildEntry, error) {
	key, err := keyFor(variant, output)
	if err != nil {
		return models.BuildStatusDBError, nil, err
	}

	status := models.BuildStatusNotFound
	var entry *models.BuildEntry

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil // Never built is not an error here
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}
		return item.Value(func(val []byte) error {
			var decoded models.BuildEntry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				s.log.Warnf("Failed to unmarshal BuildEntry for key '%s': %v. Treating as not found.", string(key), errJSON)
				return nil
			}
			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckTarget for key '%s': %v", string(key), errView)
		return models.BuildStatusDBError, nil, errView
	}
	return status, entry, nil
}

// List implements the BuildLookup interface
func (s *BadgerStore) List(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			variant, output, ok := splitKey(item.Key())
			if !ok {
				s.log.Warnf("Skipping unexpected key in DB (no guide/slide prefix): %s", string(item.Key()))
				continue
			}
			var entry models.BuildEntry
			errValue := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if errValue != nil {
				s.log.Warnf("Skipping undecodable record '%s': %v", string(item.Key()), errValue)
				continue
			}
			records = append(records, Record{Variant: variant, Output: output, Entry: entry})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return records, err
		}
		return records, fmt.Errorf("%w: listing build records: %w", utils.ErrDatabase, err)
	}
	return records, nil
}

// Count implements the BuildLookup interface
func (s *BadgerStore) Count() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute // Default interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}

			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Debug("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// WriteBuildLog implements the StoreAdmin interface. Each line holds
// variant, output, status, build time, source and broken link count.
func (s *BadgerStore) WriteBuildLog(filePath string) error {
	records, err := s.List(s.ctx)
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		s.log.Errorf("Failed create build log '%s': %v", filePath, err)
		return fmt.Errorf("%w: create build log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, r := range records {
		line := strings.Join([]string{
			string(r.Variant),
			r.Output,
			r.Entry.Status.String(),
			r.Entry.BuiltAt.UTC().Format(time.RFC3339),
			r.Entry.Source,
			fmt.Sprint(len(r.Entry.BrokenLinks)),
		}, "\t")
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("%w: writing build log '%s': %w", utils.ErrFilesystem, filePath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: flushing build log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing build log '%s': %w", utils.ErrFilesystem, filePath, err)
	}

	s.log.Infof("Wrote %d build records to %s", len(records), filePath)
	return nil
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Debug("Closing build DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing build DB: %v", err)
			return err
		}
		return nil
	}
	s.log.Debug("Build DB already closed or was not initialized.")
	return nil
}
