package resize

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeBlob decodes a standard-alphabet base64 string into raw bytes.
// Insignificant whitespace (spaces, tabs, CR, LF) is stripped first so that
// line-wrapped payloads decode cleanly. An input that is empty after
// stripping decodes to nil without error; rejecting empty payloads is the
// pipeline's job, not the codec's.
func DecodeBlob(blob string) ([]byte, error) {
	clean := stripWhitespace(blob)
	if clean == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBase64, err)
	}
	return raw, nil
}

// EncodeBlob produces the padded standard base64 representation of raw.
// It is total: any byte sequence encodes, and an empty sequence yields "".
func EncodeBlob(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func stripWhitespace(in string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		default:
			return r
		}
	}, in)
}
