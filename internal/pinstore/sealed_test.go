package pinstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediscan-back/pkg/crypto"
)

// memStore keeps pinned blobs in a map, assigning sequential identifiers.
type memStore struct {
	blobs map[string][]byte
	names []string
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) pin(name string, blob []byte) (*PinResult, error) {
	cid := fmt.Sprintf("cid-%d", len(m.blobs)+1)
	m.blobs[cid] = blob
	m.names = append(m.names, name)
	return &PinResult{CID: cid, Size: int64(len(blob))}, nil
}

func (m *memStore) PinFile(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error) {
	blob, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	return m.pin(name, blob)
}

func (m *memStore) PinJSON(ctx context.Context, name string, v any) (*PinResult, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return m.pin(name, blob)
}

func (m *memStore) Fetch(ctx context.Context, cid string) ([]byte, error) {
	blob, ok := m.blobs[cid]
	if !ok {
		return nil, ErrNotFound
	}
	return blob, nil
}

func (m *memStore) Unpin(ctx context.Context, cid string) error {
	delete(m.blobs, cid)
	return nil
}

func (m *memStore) GatewayURL(cid string) string { return "mem://" + cid }

func TestSealedJSONRoundTrip(t *testing.T) {
	store := newMemStore()
	sealed := NewSealed(store, crypto.NewCodec("test-passphrase"))

	in := map[string]string{"address": "123 Main St"}
	result, err := sealed.PinJSON(context.Background(), "patient_detail", in)
	require.NoError(t, err)

	// The stored blob is an envelope, not the plaintext.
	blob := store.blobs[result.CID]
	assert.NotContains(t, string(blob), "123 Main St")
	assert.Contains(t, string(blob), `"encrypted":true`)
	assert.Equal(t, "encrypted_patient_detail", store.names[0])

	var out map[string]string
	require.NoError(t, sealed.FetchJSON(context.Background(), result.CID, &out))
	assert.Equal(t, in, out)
}

func TestSealedFetchJSONReadsPlainContent(t *testing.T) {
	store := newMemStore()
	sealed := NewSealed(store, crypto.NewCodec("test-passphrase"))

	result, err := store.PinJSON(context.Background(), "plain", map[string]string{"k": "v"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, sealed.FetchJSON(context.Background(), result.CID, &out))
	assert.Equal(t, "v", out["k"])
}

func TestSealedFileRoundTrip(t *testing.T) {
	store := newMemStore()
	sealed := NewSealed(store, crypto.NewCodec("test-passphrase"))

	payload := []byte("%PDF-1.4 fake report")
	result, err := sealed.PinFile(context.Background(), "report.pdf", "application/pdf", payload, map[string]string{
		"reportType": "diagnostic_report",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.names[0], "encrypted_"))
	assert.NotContains(t, string(store.blobs[result.CID]), "fake report")

	name, mimeType, data, err := sealed.FetchFile(context.Background(), result.CID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, "application/pdf", mimeType)
	assert.Equal(t, payload, data)
}

func TestSealedFetchWrongKeyFails(t *testing.T) {
	store := newMemStore()

	result, err := NewSealed(store, crypto.NewCodec("key-one")).
		PinJSON(context.Background(), "doc", map[string]string{"k": "v"})
	require.NoError(t, err)

	var out map[string]string
	err = NewSealed(store, crypto.NewCodec("key-two")).
		FetchJSON(context.Background(), result.CID, &out)
	assert.Error(t, err)
}

func TestSealedPropagatesStoreErrors(t *testing.T) {
	sealed := NewSealed(Disabled{}, crypto.NewCodec("test-passphrase"))

	_, err := sealed.PinJSON(context.Background(), "doc", map[string]string{})
	assert.ErrorIs(t, err, ErrUnavailable)

	var out any
	assert.ErrorIs(t, sealed.FetchJSON(context.Background(), "QmX", &out), ErrUnavailable)
}
