package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultMaxDimension is the default maximum width or height for stored photos.
const DefaultMaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// OutputMIME is the content type of every processed photo.
const OutputMIME = "image/jpeg"

// ErrUnsupportedFormat is returned for data that does not decode as JPEG or PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ContentType reports the image MIME type of stored photo data. Data that
// does not sniff as an image is served as OutputMIME.
func ContentType(data []byte) string {
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return OutputMIME
}

// Processor normalizes uploaded photos.
type Processor struct {
	MaxDimension int
}

// NewProcessor returns a Processor that bounds photos to maxDim pixels.
// A non-positive maxDim selects DefaultMaxDimension.
func NewProcessor(maxDim int) *Processor {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Processor{MaxDimension: maxDim}
}

// Process reads image data, validates the format by sniffing bytes,
// downscales if larger than MaxDimension, and re-encodes as JPEG.
func (p *Processor) Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrUnsupportedFormat, err)
	}

	img = downscale(img, p.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim, keeping
// the aspect ratio. Smaller images are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
