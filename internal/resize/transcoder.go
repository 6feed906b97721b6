package resize

import "context"

// jpegQuality is the fixed lossy-compression setting for every output image.
const jpegQuality = 85

// ResampleFilter selects the interpolation used when scaling. The same
// filter is applied for both reduction and enlargement; AreaAverage matches
// the service contract, the others exist for callers that accept divergent
// enlargement behavior.
type ResampleFilter int

const (
	FilterAreaAverage ResampleFilter = iota
	FilterLanczos
	FilterNearest
)

// Transcoder turns compressed JPEG bytes into compressed JPEG bytes of the
// requested dimensions. Implementations are stateless and safe for
// concurrent use.
type Transcoder interface {
	Transcode(ctx context.Context, input []byte, width, height int) ([]byte, error)
}
