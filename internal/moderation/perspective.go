package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/campusnest/forum/internal/apiclient"
)

const perspectiveURL = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

// perspectiveCategoryMin is the per-attribute score that names a category.
const perspectiveCategoryMin = 0.5

var perspectiveAttributes = []string{
	"TOXICITY", "SEVERE_TOXICITY", "IDENTITY_ATTACK", "INSULT", "PROFANITY", "THREAT",
}

// Perspective classifies text with the Google Perspective API.
type Perspective struct {
	api     *apiclient.Client
	apiKey  string
	baseURL string
}

// NewPerspective returns a Perspective stage. A stage without apiKey is
// silent.
func NewPerspective(api *apiclient.Client, apiKey string) *Perspective {
	return &Perspective{api: api, apiKey: apiKey, baseURL: perspectiveURL}
}

// WithBaseURL overrides the endpoint.
func (p *Perspective) WithBaseURL(u string) *Perspective {
	p.baseURL = u
	return p
}

func (p *Perspective) Name() Source { return SourcePerspective }

type perspectiveRequest struct {
	Comment struct {
		Text string `json:"text"`
	} `json:"comment"`
	Languages           []string            `json:"languages"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type perspectiveResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Check implements Stage.
func (p *Perspective) Check(ctx context.Context, text string) (*Verdict, error) {
	if p.apiKey == "" {
		return nil, nil
	}

	var req perspectiveRequest
	req.Comment.Text = text
	req.Languages = []string{"en", "hi"}
	req.RequestedAttributes = make(map[string]struct{}, len(perspectiveAttributes))
	for _, a := range perspectiveAttributes {
		req.RequestedAttributes[a] = struct{}{}
	}

	endpoint := p.baseURL + "?key=" + url.QueryEscape(p.apiKey)
	var resp perspectiveResponse
	if err := p.api.PostJSON(ctx, endpoint, nil, req, &resp); err != nil {
		return nil, fmt.Errorf("perspective: %w", err)
	}
	if resp.AttributeScores == nil {
		return nil, errors.New("perspective: response has no attribute scores")
	}

	var top float64
	var categories []string
	for _, a := range perspectiveAttributes {
		score := resp.AttributeScores[a].SummaryScore.Value
		if score > top {
			top = score
		}
		if score >= perspectiveCategoryMin {
			categories = append(categories, strings.ToLower(a))
		}
	}

	return &Verdict{
		Confidence:   top,
		Categories:   categories,
		FlaggedWords: []string{},
		Source:       SourcePerspective,
	}, nil
}
