package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestDisabledClient(t *testing.T) {
	c := New("", nil)
	assert.False(t, c.Enabled())

	var out []patient
	assert.ErrorIs(t, c.GetJSON(context.Background(), "/patients", &out), ErrDisabled)
	assert.ErrorIs(t, c.PostJSON(context.Background(), "/patients", patient{}, nil), ErrDisabled)
	assert.ErrorIs(t, c.Delete(context.Background(), "/patients/1"), ErrDisabled)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/patients", r.URL.Path)
		json.NewEncoder(w).Encode([]patient{{ID: "1", Name: "John"}})
	}))
	defer srv.Close()

	var out []patient
	require.NoError(t, New(srv.URL, nil).GetJSON(context.Background(), "/patients", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "John", out[0].Name)
}

func TestPostJSONSendsBodyAndDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in patient
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "server-assigned"
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	var out patient
	require.NoError(t, New(srv.URL, nil).PostJSON(context.Background(), "/patients", patient{Name: "Jane"}, &out))
	assert.Equal(t, "server-assigned", out.ID)
	assert.Equal(t, "Jane", out.Name)
}

func TestNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out []patient
	err := New(srv.URL, nil).GetJSON(context.Background(), "/patients", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestTrailingSlashBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports", r.URL.Path)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	var out []patient
	require.NoError(t, New(srv.URL+"/", nil).GetJSON(context.Background(), "/reports", &out))
}
