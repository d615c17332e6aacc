// Package cache is the local collection store: one key per entity collection
// ("patients", "scans", "reports"), each value a whole JSON array that
// round-trips atomically per operation. Production backs it with LevelDB;
// tests inject the in-memory implementation.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// Collection keys.
const (
	KeyPatients = "patients"
	KeyScans    = "scans"
	KeyReports  = "reports"
)

// Store is the injectable key-value contract.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// LevelDB is the persistent Store.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the cache at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key string) ([]byte, bool, error) {
	value, err := l.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (l *LevelDB) Set(key string, value []byte) error {
	return l.db.Put([]byte(key), value, nil)
}

func (l *LevelDB) Delete(key string) error {
	return l.db.Delete([]byte(key), nil)
}

func (l *LevelDB) Close() error { return l.db.Close() }

// Memory is the in-memory Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }

// Entity is anything addressable by id inside a cached collection.
type Entity interface {
	EntityID() string
}

// GetCollection reads and decodes a whole collection. A missing key yields
// an empty slice, not an error.
func GetCollection[T any](s Store, key string) ([]T, error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed %s collection: %w", key, err)
	}
	return items, nil
}

// PutCollection replaces a whole collection.
func PutCollection[T any](s Store, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, raw)
}

// collectionMu serializes read-modify-write cycles per collection key.
// The cache is single-process by design, so a process-wide lock suffices;
// without it concurrent batch uploads overwrite each other's merges.
var collectionMu sync.Map

func lockCollection(key string) *sync.Mutex {
	mu, _ := collectionMu.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// UpdateCollection applies fn to the collection under key as one atomic
// read-modify-write. Every mutation of a whole collection goes through
// here so concurrent writers cannot lose each other's records.
func UpdateCollection[T any](s Store, key string, fn func([]T) []T) error {
	mu := lockCollection(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := GetCollection[T](s, key)
	if err != nil {
		return err
	}
	return PutCollection(s, key, fn(items))
}

// MergeRecord replaces the collection entry matching the entity's id,
// appending when absent. Last write wins.
func MergeRecord[T Entity](s Store, key string, record T) error {
	return UpdateCollection(s, key, func(items []T) []T {
		for i := range items {
			if items[i].EntityID() == record.EntityID() {
				items[i] = record
				return items
			}
		}
		return append(items, record)
	})
}

// RemoveRecord drops the collection entry matching id. Removing a missing
// id is not an error.
func RemoveRecord[T Entity](s Store, key, id string) error {
	return UpdateCollection(s, key, func(items []T) []T {
		kept := items[:0]
		for _, item := range items {
			if item.EntityID() != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
}
