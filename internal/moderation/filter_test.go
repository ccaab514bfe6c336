package moderation

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestCheck_Words(t *testing.T) {
	f := NewFilter(DefaultLexicon())

	tests := []struct {
		name       string
		input      string
		flagged    []string
		confidence float64
	}{
		{"plain", "sh1t happens", []string{"shit"}, 0.65},
		{"repeated letters", "what the fuuuck", []string{"fuck"}, 0.65},
		{"separators", "f.u.c.k this", []string{"fuck"}, 0.65},
		{"leetspeak", "b@st@rd", []string{"bastard"}, 0.65},
		{"abbreviations", "mc bc", []string{"bc", "mc"}, 0.8},
		{"no spaces", "youfuckingidiot", []string{"fuck", "fucking", "idiot"}, 0.95},
		{"hinglish", "saale kamine", []string{"kamine", "saale"}, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Check(tt.input)
			if v == nil {
				t.Fatalf("Check(%q) = nil, want verdict", tt.input)
			}
			if !v.IsUnsafe {
				t.Errorf("Check(%q).IsUnsafe = false", tt.input)
			}
			if got := sorted(v.FlaggedWords); strings.Join(got, ",") != strings.Join(tt.flagged, ",") {
				t.Errorf("Check(%q).FlaggedWords = %v, want %v", tt.input, got, tt.flagged)
			}
			if !approx(v.Confidence, tt.confidence) {
				t.Errorf("Check(%q).Confidence = %v, want %v", tt.input, v.Confidence, tt.confidence)
			}
			if len(v.Categories) != 1 || v.Categories[0] != CategoryProfanity {
				t.Errorf("Check(%q).Categories = %v, want [profanity]", tt.input, v.Categories)
			}
			if v.Source != SourceLocal {
				t.Errorf("Check(%q).Source = %q, want local", tt.input, v.Source)
			}
		})
	}
}

func TestCheck_Harassment(t *testing.T) {
	f := NewFilter(DefaultLexicon())

	tests := []struct {
		name       string
		input      string
		flagged    []string
		confidence float64
	}{
		{"pattern and word", "you are stupid", []string{"stupid"}, 0.85},
		{"pattern only", "nobody likes you", nil, 0.7},
		{"normalized pattern", "y0u are 1di0t", []string{"idiot"}, 0.85},
		{"transliterated", "tu bilkul pagal hai", []string{"pagal"}, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Check(tt.input)
			if v == nil {
				t.Fatalf("Check(%q) = nil, want verdict", tt.input)
			}
			if got := sorted(v.FlaggedWords); strings.Join(got, ",") != strings.Join(tt.flagged, ",") {
				t.Errorf("Check(%q).FlaggedWords = %v, want %v", tt.input, got, tt.flagged)
			}
			if v.FlaggedWords == nil {
				t.Errorf("Check(%q).FlaggedWords is nil, want empty slice", tt.input)
			}
			if !approx(v.Confidence, tt.confidence) {
				t.Errorf("Check(%q).Confidence = %v, want %v", tt.input, v.Confidence, tt.confidence)
			}
			if len(v.Categories) != 1 || v.Categories[0] != CategoryHarassment {
				t.Errorf("Check(%q).Categories = %v, want [harassment]", tt.input, v.Categories)
			}
		})
	}
}

func TestCheck_FlaggedWordsNeverEchoPhrases(t *testing.T) {
	f := NewFilter(DefaultLexicon())
	v := f.Check("just go away, nobody wants you")
	if v == nil {
		t.Fatal("expected a verdict")
	}
	if len(v.FlaggedWords) != 0 {
		t.Errorf("FlaggedWords = %v, want none", v.FlaggedWords)
	}
}

func TestCheck_ConfidenceCapped(t *testing.T) {
	f := NewFilter(DefaultLexicon())
	v := f.Check("fuck shit bitch asshole you suck")
	if v == nil {
		t.Fatal("expected a verdict")
	}
	if v.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", v.Confidence)
	}
}

func TestCheck_CleanMessages(t *testing.T) {
	f := NewFilter(DefaultLexicon())

	clean := []string{
		"See you at the library tomorrow",
		"Anyone selling a used calculator for the exam?",
		"Island trip to Scunthorpe this weekend",
		"The parachute club meets at the cocktail bar",
		"Bikes for sale near the hostel",
		"Anyone up for basketball practice",
		"",
	}

	for _, text := range clean {
		t.Run(text, func(t *testing.T) {
			if v := f.Check(text); v != nil {
				t.Errorf("Check(%q) = %+v, want nil", text, *v)
			}
		})
	}
}

func TestCheck_LongTermsMatchInsideWords(t *testing.T) {
	f := NewFilter(DefaultLexicon())

	tests := []struct {
		input   string
		flagged []string
	}{
		{"dickhead", []string{"dick"}},
		{"you idiots", []string{"idiot"}},
		{"stupidguy", []string{"stupid"}},
		{"fucking cunts", []string{"cunt", "fuck", "fucking"}},
		{"what a loser", []string{"loser"}},
		{"total l0s3rs", []string{"loser"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := f.Check(tt.input)
			if v == nil {
				t.Fatalf("Check(%q) = nil, want verdict", tt.input)
			}
			if got := sorted(v.FlaggedWords); strings.Join(got, ",") != strings.Join(tt.flagged, ",") {
				t.Errorf("Check(%q).FlaggedWords = %v, want %v", tt.input, got, tt.flagged)
			}
		})
	}
}

func TestCheck_AllowlistSkipsOnlyWholeCleanWords(t *testing.T) {
	f := NewFilter(Lexicon{
		Words: []string{"cock", "fuck"},
		Allow: []string{"cocktail", "fuck"},
	})

	if v := f.Check("cocktail night"); v != nil {
		t.Errorf("allowlisted word flagged: %+v", *v)
	}
	if v := f.Check("cocktails"); v == nil {
		t.Error("word outside the allowlist should still match by substring")
	}
	if v := f.Check("what a cock"); v == nil {
		t.Error("term did not match as a whole word")
	}
	if v := f.Check("cock cocktail"); v == nil {
		t.Error("term next to an allowlisted word did not match")
	}
	// A denylisted term can never be allowlisted.
	if v := f.Check("fuck"); v == nil {
		t.Error("allowlist overrode a denylisted term")
	}
}

func TestCheck_ShortTermsNeedWholeToken(t *testing.T) {
	f := NewFilter(Lexicon{Words: []string{"mc"}})

	if v := f.Check("mcdonalds"); v != nil {
		t.Errorf("short term matched as substring: %+v", *v)
	}
	if v := f.Check("ok mc"); v == nil {
		t.Error("short term did not match as token")
	}
}

func TestCheck_EmptyLexicon(t *testing.T) {
	f := NewFilter(Lexicon{})
	if v := f.Check("anything at all"); v != nil {
		t.Errorf("empty lexicon produced %+v", *v)
	}
}

func TestCheck_ConcurrentUse(t *testing.T) {
	f := NewFilter(DefaultLexicon())
	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 200; j++ {
				if f.Check("what the fuuuck") == nil {
					done <- false
					return
				}
			}
			done <- true
		}()
	}
	for i := 0; i < 8; i++ {
		if !<-done {
			t.Fatal("concurrent Check missed a match")
		}
	}
}

func TestPerformance(t *testing.T) {
	f := NewFilter(DefaultLexicon())
	msg := strings.Repeat("this is a perfectly normal forum post about exams ", 5)

	const iterations = 500
	start := time.Now()
	for i := 0; i < iterations; i++ {
		f.Check(msg)
	}
	elapsed := time.Since(start)

	perCheck := elapsed / iterations
	if perCheck > 5*time.Millisecond {
		t.Errorf("Check took %v per call, want < 5ms", perCheck)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
