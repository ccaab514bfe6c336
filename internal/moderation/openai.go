package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusnest/forum/internal/apiclient"
)

const (
	openAIURL   = "https://api.openai.com/v1/moderations"
	openAIModel = "omni-moderation-latest"
)

// OpenAI classifies text with the OpenAI moderation endpoint.
type OpenAI struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
}

// NewOpenAI returns an OpenAI stage. A stage without apiKey is silent.
func NewOpenAI(api *apiclient.Client, apiKey string) *OpenAI {
	return &OpenAI{api: api, apiKey: apiKey, baseURL: openAIURL}
}

// WithBaseURL overrides the endpoint.
func (o *OpenAI) WithBaseURL(u string) *OpenAI {
	o.baseURL = u
	return o
}

func (o *OpenAI) Name() Source { return SourceOpenAI }

type openAIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIResponse struct {
	Results []struct {
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Check implements Stage.
func (o *OpenAI) Check(ctx context.Context, text string) (*Verdict, error) {
	if o.apiKey == "" {
		return nil, nil
	}

	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	var resp openAIResponse
	if err := o.api.PostJSON(ctx, o.baseURL, headers, openAIRequest{Model: openAIModel, Input: text}, &resp); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, errors.New("openai: response has no results")
	}

	r := resp.Results[0]
	var top float64
	for _, s := range r.CategoryScores {
		if s > top {
			top = s
		}
	}
	var categories []string
	for name, flagged := range r.Categories {
		if flagged {
			categories = append(categories, name)
		}
	}

	return &Verdict{
		Confidence:   top,
		Categories:   categories,
		FlaggedWords: []string{},
		Source:       SourceOpenAI,
	}, nil
}
