package synth

import "fmt"

// Kind classifies why a generation failed.
type Kind string

const (
	InvalidShape    Kind = "invalid_shape"
	Timeout         Kind = "generation_timeout"
	UpstreamFailure Kind = "upstream_failure"
)

// GenerationError is recoverable: callers degrade instead of failing the request.
type GenerationError struct {
	Kind Kind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
