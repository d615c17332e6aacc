package cache

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r record) EntityID() string { return r.ID }

func stores(t *testing.T) map[string]Store {
	t.Helper()
	ldb, err := OpenLevelDB(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return map[string]Store{"leveldb": ldb, "memory": NewMemory()}
}

func TestStoreGetSetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("k", []byte("v")))
			value, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("v"), value)

			require.NoError(t, s.Delete("k"))
			_, ok, err = s.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGetCollectionMissingKey(t *testing.T) {
	items, err := GetCollection[record](NewMemory(), "patients")
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestGetCollectionMalformed(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("patients", []byte("{not an array")))

	_, err := GetCollection[record](s, "patients")
	assert.Error(t, err)
}

func TestPutGetCollectionRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := []record{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
			require.NoError(t, PutCollection(s, "patients", in))

			out, err := GetCollection[record](s, "patients")
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestMergeRecordReplacesById(t *testing.T) {
	s := NewMemory()
	require.NoError(t, PutCollection(s, "patients", []record{{ID: "1", Name: "old"}, {ID: "2", Name: "b"}}))

	require.NoError(t, MergeRecord(s, "patients", record{ID: "1", Name: "new"}))

	items, err := GetCollection[record](s, "patients")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].Name)
}

func TestMergeRecordAppendsWhenAbsent(t *testing.T) {
	s := NewMemory()

	require.NoError(t, MergeRecord(s, "patients", record{ID: "1", Name: "a"}))
	require.NoError(t, MergeRecord(s, "patients", record{ID: "2", Name: "b"}))

	items, err := GetCollection[record](s, "patients")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRemoveRecord(t *testing.T) {
	s := NewMemory()
	require.NoError(t, PutCollection(s, "patients", []record{{ID: "1"}, {ID: "2"}}))

	require.NoError(t, RemoveRecord[record](s, "patients", "1"))
	items, err := GetCollection[record](s, "patients")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)

	// Removing an absent id is a no-op.
	require.NoError(t, RemoveRecord[record](s, "patients", "nope"))
}

func TestUpdateCollection(t *testing.T) {
	s := NewMemory()
	require.NoError(t, PutCollection(s, "patients", []record{{ID: "1", Name: "a"}}))

	require.NoError(t, UpdateCollection(s, "patients", func(items []record) []record {
		items[0].Name = "b"
		return append(items, record{ID: "2", Name: "c"})
	}))

	items, err := GetCollection[record](s, "patients")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Name)
}

func TestMergeRecordConcurrentWritersAllSurvive(t *testing.T) {
	s := NewMemory()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, MergeRecord(s, "scans", record{ID: fmt.Sprintf("scan_%d", i)}))
		}(i)
	}
	wg.Wait()

	items, err := GetCollection[record](s, "scans")
	require.NoError(t, err)
	assert.Len(t, items, n)
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache")

	first, err := OpenLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := OpenLevelDB(path)
	require.NoError(t, err)
	defer second.Close()

	value, ok, err := second.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}
