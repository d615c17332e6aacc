package pinstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is a self-hosted pin-store backend: content lives in a MinIO
// bucket and the identifier is the hex SHA-256 of the content, so pinning
// the same bytes twice yields the same CID.
type MinioStore struct {
	client *minio.Client
	bucket string
	useSSL bool
}

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore builds the client and ensures the bucket exists.
func NewMinioStore(ctx context.Context, opts MinioOptions) (*MinioStore, error) {
	if opts.Bucket == "" {
		opts.Bucket = "mediscan"
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: opts.Bucket, useSSL: opts.UseSSL}, nil
}

func objectName(cid string) string { return "pins/" + cid }

func (m *MinioStore) put(ctx context.Context, data []byte, contentType string, keyvalues map[string]string) (*PinResult, error) {
	sum := sha256.Sum256(data)
	cid := hex.EncodeToString(sum[:])

	_, err := m.client.PutObject(ctx, m.bucket, objectName(cid), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: keyvalues,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return &PinResult{CID: cid, Size: int64(len(data)), Timestamp: time.Now().UTC()}, nil
}

// PinFile stores a binary payload under its content hash.
func (m *MinioStore) PinFile(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	if keyvalues == nil {
		keyvalues = map[string]string{}
	}
	keyvalues["name"] = name
	return m.put(ctx, data, "application/octet-stream", keyvalues)
}

// PinJSON stores a JSON document under its content hash.
func (m *MinioStore) PinJSON(ctx context.Context, name string, v any) (*PinResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON payload: %w", err)
	}
	return m.put(ctx, data, "application/json", map[string]string{"name": name})
}

// Fetch retrieves content by identifier.
func (m *MinioStore) Fetch(ctx context.Context, cid string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName(cid), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Unpin deletes content by identifier.
func (m *MinioStore) Unpin(ctx context.Context, cid string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectName(cid), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

// GatewayURL points at the object path on the MinIO endpoint.
func (m *MinioStore) GatewayURL(cid string) string {
	scheme := "http"
	if m.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.client.EndpointURL().Host, m.bucket, objectName(cid))
}
