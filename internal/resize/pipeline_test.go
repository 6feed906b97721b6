package resize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestResizeProducesExactTargetDimensions(t *testing.T) {
	cases := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
	}{
		{"downscale", 800, 600, 400, 300},
		{"upscale", 200, 150, 800, 600},
		{"same size", 640, 480, 640, 480},
		{"aspect ratio change", 1920, 1080, 300, 300},
		{"tiny target", 10, 10, 5, 5},
		{"wide stretch", 1000, 100, 2000, 50},
	}

	pipe := newTestPipeline(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := buildTestJPEG(t, tc.srcW, tc.srcH, color.RGBA{R: 128, G: 128, B: 128, A: 255})

			output, err := pipe.Resize(context.Background(), input, tc.dstW, tc.dstH)
			if err != nil {
				t.Fatalf("resize returned error: %v", err)
			}

			w, h := decodeOutputDimensions(t, output)
			if w != tc.dstW || h != tc.dstH {
				t.Fatalf("expected %dx%d output, got %dx%d", tc.dstW, tc.dstH, w, h)
			}
		})
	}
}

func TestResizeToSinglePixelKeepsDominantChannel(t *testing.T) {
	pipe := newTestPipeline(t)
	input := buildTestJPEG(t, 100, 100, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	output, err := pipe.Resize(context.Background(), input, 1, 1)
	if err != nil {
		t.Fatalf("resize returned error: %v", err)
	}

	img := decodeOutputImage(t, output)
	r, g, b, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	if r>>8 < 200 {
		t.Fatalf("expected dominant red channel, got r=%d", r>>8)
	}
	if g>>8 > 80 || b>>8 > 80 {
		t.Fatalf("expected low green/blue channels, got g=%d b=%d", g>>8, b>>8)
	}
}

func TestResizeChainHoldsDeclaredDimensions(t *testing.T) {
	pipe := newTestPipeline(t)
	input := buildTestJPEG(t, 800, 600, color.RGBA{R: 40, G: 90, B: 200, A: 255})

	first, err := pipe.Resize(context.Background(), input, 400, 300)
	if err != nil {
		t.Fatalf("first resize returned error: %v", err)
	}

	second, err := pipe.Resize(context.Background(), first, 200, 150)
	if err != nil {
		t.Fatalf("second resize returned error: %v", err)
	}

	w, h := decodeOutputDimensions(t, second)
	if w != 200 || h != 150 {
		t.Fatalf("expected 200x150 after chained resize, got %dx%d", w, h)
	}
}

func TestResizeRejectsInvalidDimensions(t *testing.T) {
	pipe := newTestPipeline(t)
	input := buildTestJPEG(t, 100, 100, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-1, 100}, {100, -1}, {70000, 70000}} {
		_, err := pipe.Resize(context.Background(), input, dims[0], dims[1])
		if !errors.Is(err, ErrInvalidDimension) {
			t.Fatalf("expected ErrInvalidDimension for %dx%d, got %v", dims[0], dims[1], err)
		}
	}
}

func TestResizeRejectsEmptyInput(t *testing.T) {
	pipe := newTestPipeline(t)

	for _, in := range []string{"", "   \n\t"} {
		_, err := pipe.Resize(context.Background(), in, 100, 100)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput for %q, got %v", in, err)
		}
	}
}

func TestResizeRejectsMalformedBase64(t *testing.T) {
	pipe := newTestPipeline(t)

	_, err := pipe.Resize(context.Background(), "not-valid-base64!@#$", 100, 100)
	if !errors.Is(err, ErrMalformedBase64) {
		t.Fatalf("expected ErrMalformedBase64, got %v", err)
	}
}

func TestResizeRejectsNonImageBytes(t *testing.T) {
	pipe := newTestPipeline(t)
	input := EncodeBlob([]byte{0xFF, 0x00, 0xFF, 0x00, 0xAA, 0xBB})

	_, err := pipe.Resize(context.Background(), input, 100, 100)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}

func TestResizeValidationRunsBeforeDecoding(t *testing.T) {
	pipe := newTestPipeline(t)

	// Dimension failures must win even when the payload is also broken.
	_, err := pipe.Resize(context.Background(), "not-valid-base64!@#$", 0, 0)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func BenchmarkPipelineResize(b *testing.B) {
	pipe, err := New()
	if err != nil {
		b.Fatalf("new pipeline: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		b.Fatalf("encode source jpeg: %v", err)
	}
	input := EncodeBlob(buf.Bytes())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pipe.Resize(context.Background(), input, 640, 360); err != nil {
			b.Fatalf("resize: %v", err)
		}
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	pipe, err := New()
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return pipe
}

func buildTestJPEG(t *testing.T, w, h int, fill color.RGBA) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		t.Fatalf("encode source jpeg: %v", err)
	}
	return EncodeBlob(buf.Bytes())
}

func decodeOutputImage(t *testing.T, output string) image.Image {
	t.Helper()

	raw, err := DecodeBlob(output)
	if err != nil {
		t.Fatalf("decode output base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode output jpeg: %v", err)
	}
	return img
}

func decodeOutputDimensions(t *testing.T, output string) (int, int) {
	t.Helper()

	bounds := decodeOutputImage(t, output).Bounds()
	return bounds.Dx(), bounds.Dy()
}
