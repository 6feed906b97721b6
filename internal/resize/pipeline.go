// Package resize implements the base64-in, base64-out JPEG resize pipeline:
// text decode, image decode, resample, image encode, text encode, with the
// validation guarding each stage. The pipeline holds no mutable state and
// is safe for arbitrarily many concurrent invocations.
package resize

import (
	"context"
	"fmt"
)

type Pipeline struct {
	transcoder Transcoder
}

type Option func(*options)

type options struct {
	filter ResampleFilter
}

// WithFilter overrides the resampling filter. The default is area averaging
// for both reduction and enlargement, which is what the service contract
// promises; only callers that accept divergent enlargement behavior should
// change it.
func WithFilter(filter ResampleFilter) Option {
	return func(o *options) {
		o.filter = filter
	}
}

func New(opts ...Option) (*Pipeline, error) {
	o := options{filter: FilterAreaAverage}
	for _, opt := range opts {
		opt(&o)
	}

	transcoder, err := newTranscoder(o.filter)
	if err != nil {
		return nil, fmt.Errorf("build transcoder: %w", err)
	}
	return &Pipeline{transcoder: transcoder}, nil
}

// Resize runs the full transformation: input is a base64 JPEG, the result is
// a base64 JPEG of exactly width x height. Stages run in strict order and
// the first failure wins; nothing is retried and nothing is logged.
func (p *Pipeline) Resize(ctx context.Context, input string, width, height int) (string, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return "", err
	}

	raw, err := DecodeBlob(input)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: decoded base64 payload has no bytes", ErrEmptyInput)
	}

	out, err := p.transcoder.Transcode(ctx, raw, width, height)
	if err != nil {
		return "", err
	}

	return EncodeBlob(out), nil
}
