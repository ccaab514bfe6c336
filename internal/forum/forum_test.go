package forum

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/moderation"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"academics", CategoryAcademics, false},
		{"Bookies", CategoryBookies, false},
		{" LOST-FOUND ", CategoryLostFound, false},
		{"memes", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, %v", tt.in, got, err)
		}
	}
	if len(AllCategories()) != 8 {
		t.Errorf("AllCategories has %d entries, want 8", len(AllCategories()))
	}
}

func TestParseReaction(t *testing.T) {
	for _, r := range AllReactions() {
		got, err := ParseReaction(strings.ToUpper(string(r)))
		if err != nil || got != r {
			t.Errorf("ParseReaction(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseReaction("meh"); err == nil {
		t.Error("expected error for unknown reaction")
	}
}

type stubModerator struct {
	verdict moderation.Verdict
	text    string
}

func (s *stubModerator) Moderate(_ context.Context, text string) moderation.Verdict {
	s.text = text
	return s.verdict
}

type memRecorder struct {
	records []*Record
	err     error
}

func (m *memRecorder) SaveRecord(_ context.Context, r *Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

type memNotifier struct{ held []*Record }

func (m *memNotifier) NotifyHeld(_ context.Context, r *Record) error {
	m.held = append(m.held, r)
	return nil
}

func TestScreen_Routes(t *testing.T) {
	tests := []struct {
		name    string
		verdict moderation.Verdict
		status  PostStatus
		held    int
	}{
		{"safe publishes", moderation.Verdict{Confidence: 0.1, Source: moderation.SourceNone}, StatusPublished, 0},
		{"unsafe holds", moderation.Verdict{IsUnsafe: true, Confidence: 0.8, Source: moderation.SourceLocal}, StatusPendingReview, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := &stubModerator{verdict: tt.verdict}
			rec := &memRecorder{}
			notif := &memNotifier{}
			s := NewScreener(mod, rec, nil, notif)

			r, err := s.Screen(context.Background(), Submission{
				AuthorID: uuid.New(),
				Category: CategoryRants,
				Title:    " Hostel wifi ",
				Content:  "Down again #wifi #Hostel",
				Tags:     []string{"hostel"},
			})
			if err != nil {
				t.Fatalf("Screen: %v", err)
			}
			if r.Status != tt.status {
				t.Errorf("Status = %s, want %s", r.Status, tt.status)
			}
			if mod.text != "Hostel wifi\nDown again #wifi #Hostel" {
				t.Errorf("moderated text = %q", mod.text)
			}
			if len(rec.records) != 1 || len(notif.held) != tt.held {
				t.Errorf("records=%d held=%d", len(rec.records), len(notif.held))
			}
			if strings.Join(r.Tags, ",") != "hostel,wifi" {
				t.Errorf("Tags = %v", r.Tags)
			}
		})
	}
}

func TestScreen_WithCascade(t *testing.T) {
	cascade := moderation.NewCascade([]moderation.Stage{moderation.NewFilter(moderation.DefaultLexicon()).Stage()})
	s := NewScreener(cascade, nil, nil)

	r, err := s.Screen(context.Background(), Submission{
		Category: CategoryGeneral, Title: "hey", Content: "nobody likes you, just leave",
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusPendingReview {
		t.Errorf("Status = %s, want PENDING_REVIEW", r.Status)
	}
}

func TestScreen_Invalid(t *testing.T) {
	s := NewScreener(&stubModerator{}, nil, nil)
	tests := []Submission{
		{Category: CategoryGeneral, Title: "", Content: "x"},
		{Category: CategoryGeneral, Title: "x", Content: "  "},
		{Category: "memes", Title: "x", Content: "y"},
		{Category: CategoryGeneral, Title: strings.Repeat("t", MaxTitleLength+1), Content: "y"},
	}
	for i, sub := range tests {
		if _, err := s.Screen(context.Background(), sub); !errors.Is(err, ErrInvalidSubmission) {
			t.Errorf("case %d: err = %v, want ErrInvalidSubmission", i, err)
		}
	}
}

func TestScreen_RecorderFailure(t *testing.T) {
	s := NewScreener(&stubModerator{}, &memRecorder{err: errors.New("db down")}, nil)
	_, err := s.Screen(context.Background(), Submission{Category: CategoryClubs, Title: "a", Content: "b"})
	if err == nil {
		t.Fatal("expected error when the record cannot be saved")
	}
}

func TestParseDecision(t *testing.T) {
	tests := map[string]PostStatus{"published": StatusPublished, " REJECTED": StatusRejected}
	for in, want := range tests {
		if got, err := ParseDecision(in); err != nil || got != want {
			t.Errorf("ParseDecision(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDecision("PENDING_REVIEW"); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("PENDING_REVIEW should not be a decision, err = %v", err)
	}
}

type capturePublisher struct {
	subject string
	data    []byte
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return nil
}

func TestEventNotifier(t *testing.T) {
	pub := &capturePublisher{}
	s := NewScreener(&stubModerator{verdict: moderation.Verdict{IsUnsafe: true, Confidence: 0.9}}, nil, nil,
		NewEventNotifier(pub, "moderation.held"))

	r, err := s.Screen(context.Background(), Submission{Category: CategoryEvents, Title: "t", Content: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if pub.subject != "moderation.held" {
		t.Fatalf("subject = %q", pub.subject)
	}
	var ev HeldEvent
	if err := json.Unmarshal(pub.data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Record == nil || ev.Record.ID != r.ID || ev.Record.Status != StatusPendingReview {
		t.Errorf("event = %+v", ev)
	}
}
