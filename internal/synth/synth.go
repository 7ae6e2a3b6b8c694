package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/llm"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

// RemedialLesson is a validated generated lesson and the tags it covers.
type RemedialLesson struct {
	Title            string                `json:"title"`
	EstimatedMinutes int                   `json:"estimatedMinutes"`
	Difficulty       string                `json:"difficulty"`
	Content          []lesson.ContentBlock `json:"content"`
	Tags             []string              `json:"tags"`
}

type Options struct {
	MaxBlocks     int
	MaxBlockChars int
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float64
}

func (o Options) withDefaults() Options {
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = 4
	}
	if o.MaxBlockChars <= 0 {
		o.MaxBlockChars = 1200
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2048
	}
	return o
}

// Synthesizer turns weak tags into a remedial lesson with one generator call.
type Synthesizer struct {
	provider llm.Provider
	opts     Options
	schema   *llm.Schema
	log      *logger.Logger
}

func New(p llm.Provider, opts Options, log *logger.Logger) *Synthesizer {
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	return &Synthesizer{
		provider: p,
		opts:     opts,
		schema:   RemedialLessonSchema(opts.MaxBlocks, opts.MaxBlockChars),
		log:      log.With("component", "synth"),
	}
}

func (s *Synthesizer) Model() string { return s.provider.ModelID() }

// SynthesizeRemedialLesson fails only with *GenerationError.
func (s *Synthesizer) SynthesizeRemedialLesson(ctx context.Context, weakTags []string) (RemedialLesson, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req := llm.UserPrompt(systemPrompt, buildRemedialPrompt(weakTags, s.opts.MaxBlocks, s.opts.MaxBlockChars),
		s.opts.MaxTokens, s.opts.Temperature)
	req.Schema = s.schema

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "remedial_lesson"), req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return RemedialLesson{}, &GenerationError{Kind: Timeout, Err: err}
		}
		return RemedialLesson{}, &GenerationError{Kind: UpstreamFailure, Err: err}
	}

	out, err := s.parse(resp.Content)
	if err != nil {
		s.log.Warn("generated lesson rejected", "tags", weakTags, "error", err)
		return RemedialLesson{}, &GenerationError{Kind: InvalidShape, Err: err}
	}
	out.Tags = append([]string(nil), weakTags...)
	return out, nil
}

// parse never truncates: any out-of-bounds value rejects the whole reply.
func (s *Synthesizer) parse(raw []byte) (RemedialLesson, error) {
	clean := []byte(llm.StripFences(string(raw)))
	if _, err := llm.Validate(s.schema, clean); err != nil {
		return RemedialLesson{}, err
	}
	var out RemedialLesson
	if err := json.Unmarshal(clean, &out); err != nil {
		return RemedialLesson{}, fmt.Errorf("decode lesson: %w", err)
	}
	return out, nil
}
