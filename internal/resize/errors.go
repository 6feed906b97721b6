package resize

import "errors"

var (
	ErrInvalidDimension = errors.New("invalid target dimensions")
	ErrEmptyInput       = errors.New("empty image input")
	ErrMalformedBase64  = errors.New("malformed base64 input")
	ErrImageDecode      = errors.New("decode jpeg image")
	ErrImageEncode      = errors.New("encode jpeg image")
)

// IsClientError reports whether err stems from caller-supplied request
// values (dimensions or base64 text) rather than from image processing.
// Adapters map client errors to 4xx responses and everything else to 5xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDimension) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrMalformedBase64)
}
