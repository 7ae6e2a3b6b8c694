package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

type Mode string

const (
	ModeRetrieval Mode = "retrieval"
	ModeSynthesis Mode = "synthesis"
)

const (
	KindRetrieved   = "retrieved"
	KindSynthesized = "synthesized"
)

// Payload is what a failing learner receives. Exactly one of Snippets and
// Lesson is set, matching Kind.
type Payload struct {
	Kind     string                `json:"kind"`
	Snippets []string              `json:"snippets,omitempty"`
	Lesson   *synth.RemedialLesson `json:"lesson,omitempty"`
}

type SnippetSource interface {
	SnippetsByTags(ctx context.Context, tags []string) ([]lesson.ContentSnippet, error)
}

type Synthesizer interface {
	SynthesizeRemedialLesson(ctx context.Context, weakTags []string) (synth.RemedialLesson, error)
	Model() string
}

// Cache holds synthesized lessons by weak-tag signature.
type Cache interface {
	Get(ctx context.Context, tags []string) (synth.RemedialLesson, bool, error)
	Set(ctx context.Context, tags []string, l synth.RemedialLesson) error
}

type Archive interface {
	Save(ctx context.Context, userID, lessonID, model string, l synth.RemedialLesson) error
}

type Request struct {
	UserID   string
	LessonID string
	WeakTags []string
}

type Selector struct {
	mode     Mode
	snippets SnippetSource
	synth    Synthesizer
	cache    Cache
	archive  Archive
	log      *logger.Logger
	timeout  time.Duration
}

type Option func(*Selector)

func WithCache(c Cache) Option     { return func(s *Selector) { s.cache = c } }
func WithArchive(a Archive) Option { return func(s *Selector) { s.archive = a } }

// WithSideEffectTimeout bounds cache and archive writes.
func WithSideEffectTimeout(d time.Duration) Option { return func(s *Selector) { s.timeout = d } }

func NewSelector(mode Mode, snippets SnippetSource, sy Synthesizer, log *logger.Logger, opts ...Option) (*Selector, error) {
	switch mode {
	case ModeRetrieval:
		if snippets == nil {
			return nil, errors.New("retrieval mode needs a snippet source")
		}
	case ModeSynthesis:
		if sy == nil {
			return nil, errors.New("synthesis mode needs a synthesizer")
		}
	default:
		return nil, fmt.Errorf("unknown remediation mode %q", mode)
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Selector{
		mode:     mode,
		snippets: snippets,
		synth:    sy,
		log:      log.With("component", "remediation"),
		timeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Select returns nil without error when there is nothing to remediate.
// Synthesis failures surface as *synth.GenerationError.
func (s *Selector) Select(ctx context.Context, req Request) (*Payload, error) {
	if len(req.WeakTags) == 0 {
		return nil, nil
	}
	if s.mode == ModeRetrieval {
		return s.retrieve(ctx, req.WeakTags)
	}
	return s.synthesize(ctx, req)
}

func (s *Selector) retrieve(ctx context.Context, tags []string) (*Payload, error) {
	found, err := s.snippets.SnippetsByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("lookup snippets: %w", err)
	}
	out := make([]string, 0, len(found))
	for _, sn := range found {
		out = append(out, sn.Content)
	}
	return &Payload{Kind: KindRetrieved, Snippets: out}, nil
}

func (s *Selector) synthesize(ctx context.Context, req Request) (*Payload, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, req.WeakTags)
		switch {
		case err != nil:
			s.log.Warn("remediation cache read failed", "error", err)
		case ok:
			s.log.Debug("remediation cache hit", "tags", req.WeakTags)
			cached.Tags = append([]string(nil), req.WeakTags...)
			return &Payload{Kind: KindSynthesized, Lesson: &cached}, nil
		}
	}

	gen, err := s.synth.SynthesizeRemedialLesson(ctx, req.WeakTags)
	if err != nil {
		return nil, err
	}

	// Neither write may fail the request or be cut short by the caller.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if s.cache != nil {
		if err := s.cache.Set(bg, req.WeakTags, gen); err != nil {
			s.log.Warn("remediation cache write failed", "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Save(bg, req.UserID, req.LessonID, s.synth.Model(), gen); err != nil {
			s.log.Warn("persist remedial lesson failed", "user_id", req.UserID, "lesson_id", req.LessonID, "error", err)
		}
	}
	return &Payload{Kind: KindSynthesized, Lesson: &gen}, nil
}
