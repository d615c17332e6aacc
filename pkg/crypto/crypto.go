// Package crypto is the symmetric codec used for payloads pushed to the
// pinned-content store. A single process-wide key is derived from a
// configured passphrase; callers are expected to have been warned when the
// passphrase is the insecure built-in default.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrNotEncrypted = errors.New("payload is not an encrypted envelope")

// Codec encrypts and decrypts JSON-serializable values with AES-256-GCM.
type Codec struct {
	key [32]byte
}

// NewCodec derives the AES key from a passphrase via SHA-256.
func NewCodec(passphrase string) *Codec {
	return &Codec{key: sha256.Sum256([]byte(passphrase))}
}

// Encrypt JSON-encodes v and seals it, returning base64(nonce||ciphertext).
func (c *Codec) Encrypt(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	sealed, err := c.seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt into out.
func (c *Codec) Decrypt(encrypted string, out any) error {
	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	plaintext, err := c.open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("failed to decode plaintext: %w", err)
	}
	return nil
}

func (c *Codec) seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aesGCM.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *Codec) open(sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonceSize := aesGCM.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("invalid ciphertext size")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// fileEnvelope is the inner wrapper for binary payloads: the bytes travel
// base64-encoded inside the encrypted JSON.
type fileEnvelope struct {
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Data         string    `json:"data"`
	Size         int       `json:"size"`
	EncryptedAt  time.Time `json:"encryptedAt"`
}

// Envelope is the outer wrapper handed to the upload step.
type Envelope struct {
	Encrypted     bool   `json:"encrypted"`
	EncryptedData string `json:"encryptedData"`
}

// SealJSON wraps v in both envelope layers and returns the outer envelope.
func (c *Codec) SealJSON(v any) (*Envelope, error) {
	encrypted, err := c.Encrypt(map[string]any{
		"data":        v,
		"encryptedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &Envelope{Encrypted: true, EncryptedData: encrypted}, nil
}

// OpenJSON reverses SealJSON into out.
func (c *Codec) OpenJSON(env *Envelope, out any) error {
	if env == nil || !env.Encrypted || env.EncryptedData == "" {
		return ErrNotEncrypted
	}
	var inner struct {
		Data        json.RawMessage `json:"data"`
		EncryptedAt time.Time       `json:"encryptedAt"`
	}
	if err := c.Decrypt(env.EncryptedData, &inner); err != nil {
		return err
	}
	return json.Unmarshal(inner.Data, out)
}

// SealFile wraps a binary payload in both envelope layers and returns the
// serialized outer envelope, ready for upload as an opaque blob.
func (c *Codec) SealFile(name, mimeType string, data []byte) ([]byte, error) {
	encrypted, err := c.Encrypt(fileEnvelope{
		OriginalName: name,
		MimeType:     mimeType,
		Data:         base64.StdEncoding.EncodeToString(data),
		Size:         len(data),
		EncryptedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Encrypted: true, EncryptedData: encrypted})
}

// OpenFile reverses SealFile, reconstructing the original bytes.
func (c *Codec) OpenFile(blob []byte) (name, mimeType string, data []byte, err error) {
	var env Envelope
	if err = json.Unmarshal(blob, &env); err != nil {
		return "", "", nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if !env.Encrypted || env.EncryptedData == "" {
		return "", "", nil, ErrNotEncrypted
	}
	var inner fileEnvelope
	if err = c.Decrypt(env.EncryptedData, &inner); err != nil {
		return "", "", nil, err
	}
	data, err = base64.StdEncoding.DecodeString(inner.Data)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to decode file data: %w", err)
	}
	return inner.OriginalName, inner.MimeType, data, nil
}
