// Package storage provides the local generation cache. Generated workflow
// files are memoized in a Badger database keyed by a digest of the provider,
// model, and config text, so repeated generate runs over an unchanged config
// do not call the provider again.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// cacheTTL bounds how long a generation result is reused
const cacheTTL = 30 * 24 * time.Hour

// GenerationCache memoizes generation results on disk
type GenerationCache struct {
	db     *badger.DB
	logger arbor.ILogger
}

// OpenGenerationCache opens (or creates) the cache database at path
func OpenGenerationCache(path string, logger arbor.ILogger) (*GenerationCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open generation cache at %s: %w", path, err)
	}
	return &GenerationCache{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (c *GenerationCache) Close() error {
	return c.db.Close()
}

// CacheKey derives the lookup key for one generation call. The digest
// covers everything that influences the output text.
func CacheKey(provider, model, configText string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + configText))
	return "gen:" + hex.EncodeToString(sum[:])
}

// Get returns the cached workflow files for key, or ok=false on a miss
func (c *GenerationCache) Get(key string) (models.WorkflowFiles, bool, error) {
	var files models.WorkflowFiles
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &files)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read generation cache: %w", err)
	}

	c.logger.Debug().Str("key", key).Int("files", len(files)).Msg("Generation cache hit")
	return files, true, nil
}

// Put stores workflow files under key with the cache TTL
func (c *GenerationCache) Put(key string, files models.WorkflowFiles) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to encode generation result: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(cacheTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to write generation cache: %w", err)
	}
	return nil
}
