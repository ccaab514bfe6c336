package forum

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/moderation"
)

// PostStatus is the visibility of a post.
type PostStatus string

const (
	StatusPublished     PostStatus = "PUBLISHED"
	StatusPendingReview PostStatus = "PENDING_REVIEW"
	StatusRejected      PostStatus = "REJECTED"
)

// ParseDecision accepts the statuses a reviewer may assign to a held post.
func ParseDecision(s string) (PostStatus, error) {
	switch st := PostStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPublished, StatusRejected:
		return st, nil
	}
	return "", ErrInvalidDecision
}

// Limits on submitted posts.
const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
)

var (
	// ErrInvalidSubmission wraps every validation failure of Screen.
	ErrInvalidSubmission = errors.New("forum: invalid submission")
	ErrRecordNotFound    = errors.New("forum: record not found")
	ErrInvalidDecision   = errors.New("forum: decision must be PUBLISHED or REJECTED")
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// Submission is a post as written by its author.
type Submission struct {
	AuthorID uuid.UUID `json:"author_id"`
	Category Category  `json:"category"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Tags     []string  `json:"tags"`
}

// Record is the moderation outcome of one submission, kept for admin review.
type Record struct {
	ID        uuid.UUID          `json:"id"`
	AuthorID  uuid.UUID          `json:"author_id"`
	Category  Category           `json:"category"`
	Tags      []string           `json:"tags"`
	Status    PostStatus         `json:"status"`
	Verdict   moderation.Verdict `json:"moderation"`
	CreatedAt time.Time          `json:"created_at"`
}

// Recorder persists moderation records.
type Recorder interface {
	SaveRecord(ctx context.Context, r *Record) error
}

// ReviewQueue lists held records and settles them.
type ReviewQueue interface {
	PendingRecords(ctx context.Context, limit int) ([]Record, error)
	// Decide returns ErrRecordNotFound unless id is currently held.
	Decide(ctx context.Context, id uuid.UUID, status PostStatus) (*Record, error)
}

// Notifier is told about posts held for review.
type Notifier interface {
	NotifyHeld(ctx context.Context, r *Record) error
}

// Screener decides whether a submission is published or held.
type Screener struct {
	mod       moderation.Moderator
	recorder  Recorder
	notifiers []Notifier
	log       *zap.SugaredLogger
}

// NewScreener creates a Screener. recorder may be nil.
func NewScreener(mod moderation.Moderator, recorder Recorder, log *zap.SugaredLogger, notifiers ...Notifier) *Screener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Screener{mod: mod, recorder: recorder, notifiers: notifiers, log: log}
}

// Screen moderates title and content together and returns the resulting
// record. Moderation problems never fail the call; only an invalid
// submission or a failed save does.
func (s *Screener) Screen(ctx context.Context, sub Submission) (*Record, error) {
	title := strings.TrimSpace(sub.Title)
	content := strings.TrimSpace(sub.Content)
	switch {
	case title == "" || content == "":
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidSubmission)
	case len([]rune(title)) > MaxTitleLength:
		return nil, fmt.Errorf("%w: title longer than %d characters", ErrInvalidSubmission, MaxTitleLength)
	case len([]rune(content)) > MaxContentLength:
		return nil, fmt.Errorf("%w: content longer than %d characters", ErrInvalidSubmission, MaxContentLength)
	case !sub.Category.Valid():
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidSubmission, sub.Category)
	}

	verdict := s.mod.Moderate(ctx, title+"\n"+content)
	status := StatusPublished
	if verdict.IsUnsafe {
		status = StatusPendingReview
	}

	rec := &Record{
		ID:        uuid.New(),
		AuthorID:  sub.AuthorID,
		Category:  sub.Category,
		Tags:      Tags(content, sub.Tags),
		Status:    status,
		Verdict:   verdict,
		CreatedAt: time.Now().UTC(),
	}

	if s.recorder != nil {
		if err := s.recorder.SaveRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("forum: save record: %w", err)
		}
	}

	if status == StatusPendingReview {
		s.log.Infow("[forum] post held for review",
			"record", rec.ID, "source", verdict.Source, "confidence", verdict.Confidence)
		for _, n := range s.notifiers {
			if err := n.NotifyHeld(ctx, rec); err != nil {
				s.log.Warnw("[forum] notify held post", "record", rec.ID, "error", err)
			}
		}
	}
	return rec, nil
}

// Tags merges manual tags with #hashtags found in content, lowercased and
// deduplicated in first-seen order.
func Tags(content string, manual []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range manual {
		add(t)
	}
	for _, m := range hashtagPattern.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	return out
}
