package pinstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinataServer(t *testing.T, handler http.HandlerFunc) *PinataClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPinataClient(PinataOptions{
		BaseURL: srv.URL,
		Gateway: srv.URL,
		APIKey:  "key",
		Secret:  "secret",
	})
}

func TestPinataPinFile(t *testing.T) {
	client := pinataServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "scan.png", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, []byte("image-bytes"), content)

		var meta struct {
			Name      string            `json:"name"`
			Keyvalues map[string]string `json:"keyvalues"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("pinataMetadata")), &meta))
		assert.Equal(t, "scan.png", meta.Name)
		assert.Equal(t, "patient_1", meta.Keyvalues["patientId"])

		assert.JSONEq(t, `{"cidVersion":1,"wrapWithDirectory":false}`, r.FormValue("pinataOptions"))

		json.NewEncoder(w).Encode(map[string]any{
			"IpfsHash":  "QmTestHash",
			"PinSize":   11,
			"Timestamp": "2024-03-01T10:00:00Z",
		})
	})

	result, err := client.PinFile(context.Background(), "scan.png",
		strings.NewReader("image-bytes"), map[string]string{"patientId": "patient_1"})
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash", result.CID)
	assert.Equal(t, int64(11), result.Size)
	assert.False(t, result.Timestamp.IsZero())
}

func TestPinataPinJSON(t *testing.T) {
	client := pinataServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			PinataContent  map[string]string `json:"pinataContent"`
			PinataMetadata map[string]any    `json:"pinataMetadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "value", body.PinataContent["field"])
		assert.Equal(t, "doc", body.PinataMetadata["name"])

		json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "QmJSONHash"})
	})

	result, err := client.PinJSON(context.Background(), "doc", map[string]string{"field": "value"})
	require.NoError(t, err)
	assert.Equal(t, "QmJSONHash", result.CID)
}

func TestPinataUploadErrorSurfacesBody(t *testing.T) {
	client := pinataServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})

	_, err := client.PinJSON(context.Background(), "doc", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestPinataFetch(t *testing.T) {
	client := pinataServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ipfs/QmTestHash":
			w.Write([]byte("pinned-content"))
		default:
			http.NotFound(w, r)
		}
	})

	content, err := client.Fetch(context.Background(), "QmTestHash")
	require.NoError(t, err)
	assert.Equal(t, []byte("pinned-content"), content)

	_, err = client.Fetch(context.Background(), "QmMissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPinataUnpin(t *testing.T) {
	client := pinataServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/pinning/unpin/QmTestHash", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Unpin(context.Background(), "QmTestHash"))
}

func TestPinataGatewayURL(t *testing.T) {
	client := NewPinataClient(PinataOptions{Gateway: "https://gw.example.com", APIKey: "k", Secret: "s"})
	assert.Equal(t, "https://gw.example.com/ipfs/QmX", client.GatewayURL("QmX"))
}

func TestDisabledStore(t *testing.T) {
	var store Store = Disabled{}

	_, err := store.PinJSON(context.Background(), "doc", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.Fetch(context.Background(), "QmX")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, store.GatewayURL("QmX"))
}
