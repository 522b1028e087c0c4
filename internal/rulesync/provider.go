package rulesync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/registry"
)

// Provider supplies authoritative rule content. The hash identifies the
// content version so an unchanged upstream can short-circuit the diff.
type Provider interface {
	Fetch(ctx context.Context) (rules []model.Rule, hash string, err error)
}

// FileProvider reads rule content from a local YAML file — the shape the
// regulatory backend drops via its own channel, or bundled defaults when
// the file is absent.
type FileProvider struct {
	Path string
}

func (p FileProvider) Fetch(_ context.Context) ([]model.Rule, string, error) {
	return registry.LoadRulesWithHash(p.Path)
}

// httpTimeout bounds a provider request; sync must never block a tick
// indefinitely.
const httpTimeout = 10 * time.Second

// HTTPProvider fetches rule content as JSON from the regulatory backend.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

// httpRuleFile is the backend response shape.
type httpRuleFile struct {
	Rules []model.Rule `json:"rules"`
}

func (p HTTPProvider) Fetch(ctx context.Context) ([]model.Rule, string, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch rules: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch rules: backend returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read rules: %w", err)
	}

	var f httpRuleFile
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, "", fmt.Errorf("parse rules: %w", err)
	}

	h := sha256.Sum256(body)
	return f.Rules, "sha256:" + hex.EncodeToString(h[:]), nil
}
