package pinstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"mediscan-back/pkg/crypto"
)

// Sealed wraps a Store so that payloads are encrypted client-side before
// they leave the process and decrypted on the way back.
type Sealed struct {
	store Store
	codec *crypto.Codec
}

func NewSealed(store Store, codec *crypto.Codec) *Sealed {
	return &Sealed{store: store, codec: codec}
}

// Store exposes the underlying unencrypted store for payloads that are
// pinned in the clear (scan images, plain anomaly documents).
func (s *Sealed) Store() Store { return s.store }

// PinJSON seals a JSON document in both envelope layers and pins the outer
// envelope.
func (s *Sealed) PinJSON(ctx context.Context, name string, v any) (*PinResult, error) {
	env, err := s.codec.SealJSON(v)
	if err != nil {
		return nil, fmt.Errorf("failed to seal %s: %w", name, err)
	}
	return s.store.PinJSON(ctx, "encrypted_"+name, env)
}

// FetchJSON retrieves and unseals a document pinned by PinJSON. Content that
// was pinned unencrypted is decoded as-is.
func (s *Sealed) FetchJSON(ctx context.Context, cid string, out any) error {
	raw, err := s.store.Fetch(ctx, cid)
	if err != nil {
		return err
	}
	var env crypto.Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Encrypted {
		return s.codec.OpenJSON(&env, out)
	}
	return json.Unmarshal(raw, out)
}

// PinFile seals a binary payload and pins the envelope as an opaque blob.
func (s *Sealed) PinFile(ctx context.Context, name, mimeType string, data []byte, keyvalues map[string]string) (*PinResult, error) {
	blob, err := s.codec.SealFile(name, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to seal %s: %w", name, err)
	}
	if keyvalues == nil {
		keyvalues = map[string]string{}
	}
	keyvalues["encrypted"] = "true"
	keyvalues["originalName"] = name
	keyvalues["originalType"] = mimeType
	return s.store.PinFile(ctx, "encrypted_"+name+".enc", bytes.NewReader(blob), keyvalues)
}

// FetchFile retrieves and unseals a blob pinned by PinFile.
func (s *Sealed) FetchFile(ctx context.Context, cid string) (name, mimeType string, data []byte, err error) {
	raw, err := s.store.Fetch(ctx, cid)
	if err != nil {
		return "", "", nil, err
	}
	return s.codec.OpenFile(raw)
}
