// Package remote forwards saved documents to the external relational storage service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure Persister implements the interface.
var _ driven.RemotePersister = (*Persister)(nil)

// DefaultTimeout applies when the settings leave Timeout unset.
const DefaultTimeout = 10 * time.Second

// Persister POSTs document payloads as JSON.
type Persister struct {
	client *http.Client
	url    string
	token  string
}

// New creates a Persister from settings. It returns nil when forwarding is disabled.
func New(cfg domain.RemoteSettings) *Persister {
	if !cfg.Enabled() {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Persister{
		client: &http.Client{Timeout: timeout},
		url:    cfg.URL,
		token:  cfg.Token,
	}
}

type persistResponse struct {
	ID json.RawMessage `json:"id"`
}

// PersistRemote sends the payload and returns the ID assigned by the remote service.
func (p *Persister) PersistRemote(ctx context.Context, payload domain.RemotePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out persistResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	id := strings.Trim(string(out.ID), `"`)
	if id == "" || id == "null" {
		return "", fmt.Errorf("remote store returned no id")
	}
	return id, nil
}
