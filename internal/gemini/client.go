// Package gemini is a minimal client for the Gemini generateContent REST
// endpoint. It is used for the moderation fallback stage and for generating
// the daily word and its hint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusnest/forum/internal/apiclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client generates text from a prompt.
type Client struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
	model   string
}

// NewClient creates a client. An empty apiKey yields a client whose
// Configured method reports false.
func NewClient(api *apiclient.Client, apiKey string) *Client {
	return &Client{
		api:     api,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithModel selects the model name.
func (c *Client) WithModel(m string) *Client {
	c.model = m
	return c
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and returns the concatenated text of the first
// candidate, trimmed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", errors.New("gemini: no api key")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	var resp generateResponse
	if err := c.api.PostJSON(ctx, url, headers, req, &resp); err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
