package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/apiclient"
	"github.com/campusnest/forum/internal/metrics"
)

// DefaultThreshold is the confidence at or above which a text is held.
const DefaultThreshold = 0.45

// defaultSafeConfidence is reported when no stage produced a verdict.
const defaultSafeConfidence = 0.1

// Stage is one evaluator in the cascade. A nil verdict or any error means
// "no verdict": the cascade moves on to the next stage.
type Stage interface {
	Name() Source
	Check(ctx context.Context, text string) (*Verdict, error)
}

// unsafeOnlyStage is implemented by stages whose safe verdicts must not end
// the cascade.
type unsafeOnlyStage interface {
	UnsafeOnly() bool
}

// Policy holds the tunables of a Cascade.
type Policy struct {
	// Threshold is the confidence at or above which a verdict is unsafe.
	Threshold float64
	// StageTimeout bounds each stage independently.
	StageTimeout time.Duration
	// TrustProviderSafe lets the first external provider that answers end
	// the cascade even when its verdict is safe. When false, safe provider
	// verdicts are kept and the remaining providers are still consulted.
	TrustProviderSafe bool
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		Threshold:         DefaultThreshold,
		StageTimeout:      10 * time.Second,
		TrustProviderSafe: true,
	}
}

// Cascade runs stages in order until one of them decides. It is safe for
// concurrent use as long as its stages are.
type Cascade struct {
	stages   []Stage
	policy   Policy
	detector LanguageDetector
	log      *zap.SugaredLogger
}

// CascadeOption customizes a Cascade.
type CascadeOption func(*Cascade)

// WithPolicy replaces DefaultPolicy. Zero fields keep their defaults.
func WithPolicy(p Policy) CascadeOption {
	return func(c *Cascade) {
		if p.Threshold > 0 {
			c.policy.Threshold = p.Threshold
		}
		if p.StageTimeout > 0 {
			c.policy.StageTimeout = p.StageTimeout
		}
		c.policy.TrustProviderSafe = p.TrustProviderSafe
	}
}

// WithDetector sets the language detector.
func WithDetector(d LanguageDetector) CascadeOption {
	return func(c *Cascade) { c.detector = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) CascadeOption {
	return func(c *Cascade) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCascade builds a cascade over stages, consulted in the given order.
func NewCascade(stages []Stage, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		stages:   append([]Stage(nil), stages...),
		policy:   DefaultPolicy(),
		detector: WhatlangDetector{},
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the effective policy.
func (c *Cascade) Policy() Policy { return c.policy }

// Budget is the longest Moderate can run: every stage hitting its timeout.
func (c *Cascade) Budget() time.Duration {
	return time.Duration(len(c.stages)) * c.policy.StageTimeout
}

// Moderate classifies text. It never fails: when every stage is silent the
// default-safe verdict is returned.
func (c *Cascade) Moderate(ctx context.Context, text string) Verdict {
	lang := LanguageUnknown
	if c.detector != nil {
		lang = c.detector.Detect(text)
	}

	var candidate *Verdict
	for _, st := range c.stages {
		if ctx.Err() != nil {
			break
		}
		v := c.runStage(ctx, st, text)
		if v == nil {
			continue
		}

		out := v.normalized(c.policy.Threshold)
		if out.Source == "" {
			out.Source = st.Name()
		}
		if out.IsUnsafe {
			return c.finish(out, lang)
		}
		if u, ok := st.(unsafeOnlyStage); ok && u.UnsafeOnly() {
			continue
		}
		if c.policy.TrustProviderSafe {
			return c.finish(out, lang)
		}
		if candidate == nil || out.Confidence > candidate.Confidence {
			candidate = &out
		}
	}

	if candidate != nil {
		return c.finish(*candidate, lang)
	}
	return c.finish(Verdict{
		Confidence:   defaultSafeConfidence,
		Categories:   []string{},
		FlaggedWords: []string{},
		Source:       SourceNone,
	}, lang)
}

func (c *Cascade) finish(v Verdict, lang string) Verdict {
	v.Language = lang
	if v.Categories == nil {
		v.Categories = []string{}
	}
	if v.FlaggedWords == nil {
		v.FlaggedWords = []string{}
	}
	metrics.ModerationVerdicts.WithLabelValues(string(v.Source), strconv.FormatBool(v.IsUnsafe)).Inc()
	return v
}

type stageResult struct {
	v   *Verdict
	err error
}

// runStage calls st under the stage timeout. A stage that ignores its
// context is abandoned when the timeout fires; its late answer is dropped.
func (c *Cascade) runStage(ctx context.Context, st Stage, text string) *Verdict {
	name := string(st.Name())
	ctx, cancel := context.WithTimeout(ctx, c.policy.StageTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan stageResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageResult{err: fmt.Errorf("moderation: stage %s panicked: %v", name, r)}
			}
		}()
		v, err := st.Check(ctx, text)
		done <- stageResult{v: v, err: err}
	}()

	var res stageResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	metrics.ModerationStageLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if res.err != nil {
		reason := failureReason(res.err)
		metrics.ModerationStageFailures.WithLabelValues(name, reason).Inc()
		c.log.Warnw("[moderation] stage failed", "stage", name, "reason", reason, "error", res.err)
		return nil
	}
	return res.v
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, apiclient.ErrStatus):
		return "status"
	default:
		return "error"
	}
}
