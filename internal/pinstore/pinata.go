package pinstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// PinataClient pins content through the Pinata HTTP API using a static
// api-key/secret pair.
type PinataClient struct {
	baseURL string
	gateway string
	apiKey  string
	secret  string
	http    *http.Client
}

// PinataOptions configures a PinataClient.
type PinataOptions struct {
	BaseURL string // default https://api.pinata.cloud
	Gateway string // default https://gateway.pinata.cloud
	APIKey  string
	Secret  string
	Client  *http.Client
}

// NewPinataClient builds a client from static credentials.
func NewPinataClient(opts PinataOptions) *PinataClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.pinata.cloud"
	}
	if opts.Gateway == "" {
		opts.Gateway = "https://gateway.pinata.cloud"
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &PinataClient{
		baseURL: opts.BaseURL,
		gateway: opts.Gateway,
		apiKey:  opts.APIKey,
		secret:  opts.Secret,
		http:    opts.Client,
	}
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (p *PinataClient) authorize(req *http.Request) {
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.secret)
}

func (p *PinataClient) result(resp *http.Response) (*PinResult, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pinata returned %d: %s", resp.StatusCode, body)
	}
	var pr pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode pinata response: %w", err)
	}
	ts, _ := time.Parse(time.RFC3339, pr.Timestamp)
	return &PinResult{CID: pr.IpfsHash, Size: pr.PinSize, Timestamp: ts}, nil
}

// PinFile uploads via /pinning/pinFileToIPFS with pinataMetadata keyvalues.
func (p *PinataClient) PinFile(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}

	meta, err := json.Marshal(map[string]any{"name": name, "keyvalues": keyvalues})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("pinataOptions", `{"cidVersion":1,"wrapWithDirectory":false}`); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p.authorize(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to pinata: %w", err)
	}
	return p.result(resp)
}

// PinJSON uploads via /pinning/pinJSONToIPFS.
func (p *PinataClient) PinJSON(ctx context.Context, name string, v any) (*PinResult, error) {
	payload, err := json.Marshal(map[string]any{
		"pinataContent":  v,
		"pinataMetadata": map[string]any{"name": name},
		"pinataOptions":  map[string]any{"cidVersion": 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload JSON to pinata: %w", err)
	}
	return p.result(resp)
}

// Fetch retrieves content through the public gateway.
func (p *PinataClient) Fetch(ctx context.Context, cid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.GatewayURL(cid), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Unpin deletes pinned content via /pinning/unpin.
func (p *PinataClient) Unpin(ctx context.Context, cid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/pinning/unpin/"+cid, nil)
	if err != nil {
		return err
	}
	p.authorize(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to unpin: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pinata returned %d", resp.StatusCode)
	}
	return nil
}

// GatewayURL templates <gateway>/ipfs/<cid>.
func (p *PinataClient) GatewayURL(cid string) string {
	return fmt.Sprintf("%s/ipfs/%s", p.gateway, cid)
}
