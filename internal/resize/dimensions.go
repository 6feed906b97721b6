package resize

import "fmt"

// MaxDimension is the largest width or height a baseline JPEG can address.
// Requests beyond it would fail at encode time anyway, so they are rejected
// before any decoding work happens.
const MaxDimension = 65500

// ValidateDimensions checks a requested output size against the bounds the
// JPEG encoder can address. Both bounds are inclusive.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d height=%d, both must be positive", ErrInvalidDimension, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: width=%d height=%d, maximum is %d", ErrInvalidDimension, width, height, MaxDimension)
	}
	return nil
}
