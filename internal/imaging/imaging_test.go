package imaging

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"testing"
)

func TestProcessJPEG(t *testing.T) {
	out, err := NewProcessor(0).Process(bytes.NewReader(SampleJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if got := http.DetectContentType(out); got != OutputMIME {
		t.Errorf("expected %s, got %s", OutputMIME, got)
	}
}

func TestProcessPNG(t *testing.T) {
	out, err := NewProcessor(0).Process(bytes.NewReader(SamplePNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if got := http.DetectContentType(out); got != OutputMIME {
		t.Errorf("expected PNG to be re-encoded as %s, got %s", OutputMIME, got)
	}
}

func TestProcessDownscale(t *testing.T) {
	p := NewProcessor(256)
	out, err := p.Process(bytes.NewReader(SampleJPEG(1024, 512)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 256 || bounds.Dy() != 128 {
		t.Errorf("expected 256x128, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	out, err := NewProcessor(0).Process(bytes.NewReader(SampleJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	inputs := map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	}
	for name, data := range inputs {
		_, err := NewProcessor(0).Process(bytes.NewReader(data))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestNewProcessorDefault(t *testing.T) {
	if got := NewProcessor(-1).MaxDimension; got != DefaultMaxDimension {
		t.Errorf("expected default %d, got %d", DefaultMaxDimension, got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want string
	}{
		"jpeg": {SampleJPEG(4, 4), "image/jpeg"},
		"png":  {SamplePNG(4, 4), "image/png"},
		"gif":  {[]byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		"pdf":  {[]byte("%PDF-1.4"), OutputMIME},
		"text": {[]byte("hello"), OutputMIME},
	}
	for name, tt := range tests {
		if got := ContentType(tt.data); got != tt.want {
			t.Errorf("%s: got %q, want %q", name, got, tt.want)
		}
	}
}
