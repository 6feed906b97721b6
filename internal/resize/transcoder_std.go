package resize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// stdTranscoder is the pure-Go backend built on disintegration/imaging.
// It is the default unless the binary is built with the govips tag.
type stdTranscoder struct {
	filter imaging.ResampleFilter
}

func newStdTranscoder(filter ResampleFilter) stdTranscoder {
	return stdTranscoder{filter: imagingFilter(filter)}
}

func (t stdTranscoder) Transcode(ctx context.Context, input []byte, width, height int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	src, err := DecodeJPEG(input)
	if err != nil {
		return nil, err
	}

	return EncodeJPEG(t.Resample(src, width, height))
}

// DecodeJPEG materializes JPEG bytes into a pixel buffer. Empty, truncated,
// or non-JPEG bytes yield ErrImageDecode.
func DecodeJPEG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image bytes", ErrImageDecode)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}

// Resample stretches src to exactly width x height, ignoring aspect ratio.
func (t stdTranscoder) Resample(src image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(src, width, height, t.filter)
}

// EncodeJPEG serializes a pixel buffer as JPEG at the fixed quality setting.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no output", ErrImageEncode)
	}
	return buf.Bytes(), nil
}

func imagingFilter(filter ResampleFilter) imaging.ResampleFilter {
	switch filter {
	case FilterLanczos:
		return imaging.Lanczos
	case FilterNearest:
		return imaging.NearestNeighbor
	default:
		return imaging.Box
	}
}
