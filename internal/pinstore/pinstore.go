// Package pinstore talks to the pinned-content cloud store. Uploads return a
// content identifier; retrieval goes through a public gateway URL. Two
// backends exist: the Pinata HTTP API and a MinIO bucket addressed by the
// SHA-256 of the content.
package pinstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnavailable means no pin store is configured. Read paths treat it
	// as a miss; sensitive write paths treat it as fatal.
	ErrUnavailable = errors.New("pin store not configured")
	ErrNotFound    = errors.New("content not found")
)

// PinResult describes a successful pin.
type PinResult struct {
	CID       string    `json:"cid"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the pinned-content contract.
type Store interface {
	// PinFile uploads a binary payload with optional key/value metadata.
	PinFile(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error)
	// PinJSON uploads a JSON document.
	PinJSON(ctx context.Context, name string, v any) (*PinResult, error)
	// Fetch retrieves pinned content by identifier.
	Fetch(ctx context.Context, cid string) ([]byte, error)
	// Unpin deletes pinned content.
	Unpin(ctx context.Context, cid string) error
	// GatewayURL returns the public retrieval URL for a content identifier.
	GatewayURL(cid string) string
}

// Disabled is the Store used when nothing is configured: every operation
// reports ErrUnavailable so callers degrade per their own policy.
type Disabled struct{}

func (Disabled) PinFile(context.Context, string, io.Reader, map[string]string) (*PinResult, error) {
	return nil, ErrUnavailable
}

func (Disabled) PinJSON(context.Context, string, any) (*PinResult, error) {
	return nil, ErrUnavailable
}

func (Disabled) Fetch(context.Context, string) ([]byte, error) { return nil, ErrUnavailable }

func (Disabled) Unpin(context.Context, string) error { return ErrUnavailable }

func (Disabled) GatewayURL(cid string) string { return "" }
