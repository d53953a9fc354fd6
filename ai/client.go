// Package ai calls the external text-generation service that drafts clinical
// session notes. The service is a black box; only its HTTP contract matters
// here.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/menprac-cloud/menPrac-backend/config"
)

const (
	generateInitialBackoff = 1 * time.Second
	generateMaxBackoff     = 10 * time.Second
	generateMaxRetries     = 2
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai: no API key configured")

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	cfg        *config.AIConfig
	httpClient *http.Client
}

// NewClient creates an AI client from configuration.
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// request/response shapes for the generateContent API. Only the fields this
// service reads are modeled.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateNote produces a clinical note from session data. Transient upstream
// failures (5xx, 429, network) are retried with backoff; anything else fails
// immediately.
func (c *Client) GenerateNote(ctx context.Context, data SessionData) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	prompt := BuildNotePrompt(data)
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.Endpoint, c.cfg.Model)

	var note string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("ai: upstream status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("ai: upstream status %d: %s", resp.StatusCode, raw))
		}

		var parsed generateResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("ai: decode response: %w", err))
		}
		if parsed.Error != nil {
			return backoff.Permanent(fmt.Errorf("ai: upstream error %d: %s", parsed.Error.Code, parsed.Error.Message))
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(errors.New("ai: empty response"))
		}

		note = parsed.Candidates[0].Content.Parts[0].Text
		return nil
	}

	backoffStrategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(generateInitialBackoff),
				backoff.WithMaxInterval(generateMaxBackoff),
			),
			generateMaxRetries,
		),
		ctx,
	)

	err = backoff.RetryNotify(operation, backoffStrategy, func(err error, d time.Duration) {
		log.Printf("Retrying note generation: %v (next attempt in %s)", err, d)
	})
	if err != nil {
		return "", err
	}
	return note, nil
}
