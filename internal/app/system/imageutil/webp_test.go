package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/chai2010/webp"
)

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func noisyImage(w, h int) image.Image {
	// Random noise compresses poorly, forcing the quality ladder to work
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func flatImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	return img
}

func decodeWebP(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid webp: %v", err)
	}
	return img
}

func TestToWebP_FitsBudget(t *testing.T) {
	src := encodeJPEG(t, noisyImage(1600, 1200))

	out, err := ToWebP(src)
	if err != nil {
		t.Fatalf("ToWebP() error = %v", err)
	}
	if len(out) > MaxEncodedSize {
		t.Errorf("output size = %d, want <= %d", len(out), MaxEncodedSize)
	}
	decodeWebP(t, out)
}

func TestToWebP_ScalesDownLargeImages(t *testing.T) {
	src := encodeJPEG(t, flatImage(1600, 1200))

	out, err := ToWebP(src)
	if err != nil {
		t.Fatalf("ToWebP() error = %v", err)
	}

	img := decodeWebP(t, out)
	b := img.Bounds()
	if b.Dx() > 800 || b.Dy() > 600 {
		t.Errorf("dimensions = %dx%d, want at most 800x600", b.Dx(), b.Dy())
	}
}

func TestToWebP_DoesNotEnlargeSmallImages(t *testing.T) {
	src := encodeJPEG(t, flatImage(200, 150))

	out, err := ToWebP(src)
	if err != nil {
		t.Fatalf("ToWebP() error = %v", err)
	}

	img := decodeWebP(t, out)
	b := img.Bounds()
	if b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("dimensions = %dx%d, want 200x150 (no enlargement)", b.Dx(), b.Dy())
	}
}

func TestToWebP_AcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, flatImage(300, 200)); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	out, err := ToWebP(buf.Bytes())
	if err != nil {
		t.Fatalf("ToWebP() error = %v", err)
	}
	decodeWebP(t, out)
}

func TestToWebP_RejectsNonImage(t *testing.T) {
	if _, err := ToWebP([]byte("not an image")); err == nil {
		t.Error("ToWebP() should fail on non-image input")
	}
}
