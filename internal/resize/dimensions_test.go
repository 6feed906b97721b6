package resize

import (
	"errors"
	"testing"
)

func TestValidateDimensions(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		height int
		ok     bool
	}{
		{"both valid", 800, 600, true},
		{"minimum", 1, 1, true},
		{"maximum inclusive", MaxDimension, MaxDimension, true},
		{"zero width", 0, 100, false},
		{"zero height", 100, 0, false},
		{"negative width", -100, 100, false},
		{"negative height", 100, -100, false},
		{"width over maximum", MaxDimension + 1, 100, false},
		{"height over maximum", 100, 70000, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDimensions(tc.width, tc.height)
			if tc.ok && err != nil {
				t.Fatalf("expected %dx%d to validate, got %v", tc.width, tc.height, err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidDimension) {
				t.Fatalf("expected ErrInvalidDimension for %dx%d, got %v", tc.width, tc.height, err)
			}
		})
	}
}
