// Package summarizer calls a hosted sequence-to-sequence model to summarize text.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrEmptyInput is returned when there is no text left to summarize.
var ErrEmptyInput = errors.New("nothing to summarize")

// Options configures a Client.
type Options struct {
	Endpoint      string
	Token         string
	MinLength     int
	MaxLength     int
	MaxInputRunes int // no cap when zero
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client summarizes text with a fixed length window and greedy decoding.
// It keeps no state between calls.
type Client struct {
	endpoint      string
	token         string
	minLength     int
	maxLength     int
	maxInputRunes int
	httpClient    *http.Client
	logger        *log.Logger
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

type parameters struct {
	MinLength int  `json:"min_length"`
	MaxLength int  `json:"max_length"`
	DoSample  bool `json:"do_sample"`
}

type summary struct {
	SummaryText string `json:"summary_text"`
}

type apiError struct {
	Error string `json:"error"`
}

// New creates a Client. It is meant to be built once per process.
func New(opts Options, logger *log.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid summarizer endpoint %q: %w", opts.Endpoint, err)
	}
	if opts.MaxLength < opts.MinLength {
		return nil, fmt.Errorf("max length %d is below min length %d", opts.MaxLength, opts.MinLength)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		endpoint:      opts.Endpoint,
		token:         opts.Token,
		minLength:     opts.MinLength,
		maxLength:     opts.MaxLength,
		maxInputRunes: opts.MaxInputRunes,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// Summarize returns the model's summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = truncate(strings.TrimSpace(text), c.maxInputRunes)
	if text == "" {
		return "", ErrEmptyInput
	}

	payload := request{
		Inputs: text,
		Parameters: parameters{
			MinLength: c.minLength,
			MaxLength: c.maxLength,
			DoSample:  false,
		},
	}
	payload.Options.WaitForModel = true

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("summarizing", "runes", len([]rune(text)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("summarizer error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("summarizer error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out []summary
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 || out[0].SummaryText == "" {
		return "", errors.New("summarizer returned no summary")
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

// truncate caps s at limit runes. A non-positive limit disables the cap.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
