//go:build govips && cgo

package resize

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

// govipsTranscoder is the libvips backend. libvips picks its own reduction
// kernels inside the thumbnail path, so the pipeline's filter option does
// not apply here; the tradeoff is much lower memory use on large sources
// and optimized Huffman tables on output.
type govipsTranscoder struct{}

func (govipsTranscoder) Transcode(ctx context.Context, input []byte, width, height int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(input) == 0 {
		return nil, fmt.Errorf("%w: no image bytes", ErrImageDecode)
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	defer img.Close()

	// SizeForce stretches to the exact target, matching the pure-Go backend.
	if err := img.ThumbnailWithSize(width, height, vips.InterestingNone, vips.SizeForce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	params := vips.NewJpegExportParams()
	params.Quality = jpegQuality
	params.OptimizeCoding = true

	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: encoder produced no output", ErrImageEncode)
	}
	return data, nil
}
