// Package fsapi implements the client side of the backend file-system
// service contract: directory listings, copy/move/rename operations, and
// the WebSocket progress channel for long-running transfers.
package fsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"dualpane-file-manager/internal/retry"
)

// Client talks to the backend file-system service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config

	mu     sync.RWMutex
	online bool
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
}

// New creates a backend client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		online:      true,
	}
}

// IsOnline returns true if the last backend request succeeded.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

// List fetches the directory listing for path on the given storage backend.
func (c *Client) List(ctx context.Context, storage, path string) ([]FileEntry, error) {
	var files []FileEntry

	err := retry.Do(ctx, c.retryConfig, func() error {
		q := url.Values{}
		q.Set("storage", storage)
		q.Set("path", path)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/fs/list?"+q.Encode(), nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.setOnline(false)
			return retry.Transient(fmt.Errorf("server error: %d", resp.StatusCode))
		}
		c.setOnline(true)

		var listResp listResponse
		if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
			return fmt.Errorf("failed to decode listing: %v", err)
		}
		if !listResp.Success {
			if listResp.Error != nil {
				return fmt.Errorf("list failed: %s", listResp.Error.Message)
			}
			return fmt.Errorf("list failed: server returned %d", resp.StatusCode)
		}

		files = listResp.Data.Files
		return nil
	})

	return files, err
}

// Copy requests a server-side copy of a single file or directory.
func (c *Client) Copy(ctx context.Context, req TransferRequest) error {
	return c.post(ctx, "/api/fs/copy", req)
}

// Move requests a server-side move of a single file or directory.
func (c *Client) Move(ctx context.Context, req TransferRequest) error {
	return c.post(ctx, "/api/fs/move", req)
}

// Rename renames a single entry in place.
func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	return c.post(ctx, "/api/fs/rename", RenameRequest{OldPath: oldPath, NewPath: newPath})
}

func (c *Client) post(ctx context.Context, endpoint string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %v", err)
	}

	return retry.Do(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.setOnline(false)
			return retry.Transient(fmt.Errorf("server error: %d", resp.StatusCode))
		}
		c.setOnline(true)

		if resp.StatusCode >= 400 {
			var errResp errorResponse
			if decErr := json.NewDecoder(resp.Body).Decode(&errResp); decErr == nil && errResp.Error != nil {
				return fmt.Errorf("%s failed: %s", endpoint, errResp.Error.Message)
			}
			return fmt.Errorf("%s failed: server returned %d", endpoint, resp.StatusCode)
		}
		return nil
	})
}
