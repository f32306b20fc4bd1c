package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// SampleJPEG returns a solid-colour JPEG of the given size. It backs tests in
// this and other packages that need a real photo upload.
func SampleJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// SamplePNG returns a solid-colour PNG of the given size.
func SamplePNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}
