package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusnest/forum/internal/apiclient"
)

func TestPerspective_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q, want secret", got)
		}
		var req perspectiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Comment.Text != "hello there" {
			t.Errorf("text = %q", req.Comment.Text)
		}
		if len(req.RequestedAttributes) != len(perspectiveAttributes) {
			t.Errorf("requested %d attributes, want %d", len(req.RequestedAttributes), len(perspectiveAttributes))
		}
		w.Write([]byte(`{"attributeScores":{
			"TOXICITY":{"summaryScore":{"value":0.62}},
			"INSULT":{"summaryScore":{"value":0.71}},
			"PROFANITY":{"summaryScore":{"value":0.2}}
		}}`))
	}))
	defer srv.Close()

	p := NewPerspective(apiclient.New(), "secret").WithBaseURL(srv.URL)
	v, err := p.Check(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Confidence != 0.71 {
		t.Errorf("Confidence = %v, want 0.71", v.Confidence)
	}
	if len(v.Categories) != 2 || v.Categories[0] != "toxicity" || v.Categories[1] != "insult" {
		t.Errorf("Categories = %v, want [toxicity insult]", v.Categories)
	}
	if v.Source != SourcePerspective {
		t.Errorf("Source = %q", v.Source)
	}
}

func TestPerspective_Unconfigured(t *testing.T) {
	v, err := NewPerspective(apiclient.New(), "").Check(context.Background(), "x")
	if v != nil || err != nil {
		t.Fatalf("Check = %v, %v; want nil, nil", v, err)
	}
}

func TestPerspective_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewPerspective(apiclient.New(), "k").WithBaseURL(srv.URL).Check(context.Background(), "x")
	if !errors.Is(err, apiclient.ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
	if failureReason(err) != "status" {
		t.Errorf("failureReason = %q, want status", failureReason(err))
	}
}

func TestOpenAI_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != openAIModel || req.Input != "some text" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"results":[{
			"flagged":true,
			"categories":{"harassment":true,"violence":false},
			"category_scores":{"harassment":0.81,"violence":0.05}
		}]}`))
	}))
	defer srv.Close()

	v, err := NewOpenAI(apiclient.New(), "sk-test").WithBaseURL(srv.URL).Check(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Confidence != 0.81 {
		t.Errorf("Confidence = %v, want 0.81", v.Confidence)
	}
	if len(v.Categories) != 1 || v.Categories[0] != "harassment" {
		t.Errorf("Categories = %v, want [harassment]", v.Categories)
	}
}

func TestOpenAI_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	v, err := NewOpenAI(apiclient.New(), "k").WithBaseURL(srv.URL).Check(context.Background(), "x")
	if err == nil || v != nil {
		t.Fatalf("Check = %v, %v; want error", v, err)
	}
}

type fakeGenerator struct {
	reply string
	err   error
}

func (g fakeGenerator) Configured() bool { return true }

func (g fakeGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

func TestLLM_Check(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantErr    bool
		unsafe     bool
		confidence float64
	}{
		{"plain json", `{"isUnsafe":false,"confidence":0.2,"categories":[]}`, false, false, 0.2},
		{"fenced json", "```json\n{\"isUnsafe\":true,\"confidence\":0.3,\"categories\":[\"hate\"]}\n```", false, true, 0.3},
		{"not json", "I cannot help with that.", true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewLLM(fakeGenerator{reply: tt.reply}, SourceGemini).Check(context.Background(), "x")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if v.IsUnsafe != tt.unsafe || v.Confidence != tt.confidence || v.Source != SourceGemini {
				t.Errorf("verdict = %+v", *v)
			}
		})
	}
}

func TestLLM_Unconfigured(t *testing.T) {
	v, err := NewLLM(nil, SourceGemini).Check(context.Background(), "x")
	if v != nil || err != nil {
		t.Fatalf("Check = %v, %v; want nil, nil", v, err)
	}
}

func TestLanguage_Detect(t *testing.T) {
	d := WhatlangDetector{}
	if got := d.Detect("hi"); got != LanguageUnknown {
		t.Errorf("short text: Detect = %q, want unknown", got)
	}
	got := d.Detect("The library will stay open late during the final examination week for all students.")
	if got != "en" {
		t.Errorf("english text: Detect = %q, want en", got)
	}
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages(apiclient.New(), ProviderKeys{}, nil)
	want := []Source{SourceLocal, SourcePerspective, SourceOpenAI, SourceGemini}
	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i, st := range stages {
		if st.Name() != want[i] {
			t.Errorf("stage %d = %s, want %s", i, st.Name(), want[i])
		}
	}

	// Unconfigured providers fall through to the default safe verdict.
	v := NewCascade(stages).Moderate(context.Background(), "see you at the library")
	if v.IsUnsafe || v.Source != SourceNone {
		t.Errorf("verdict = %+v", v)
	}
}
