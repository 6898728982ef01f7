package helpers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func solidImage(c color.Color, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func assertPixel(t *testing.T, img image.Image, x, y int, wantR, wantG, wantB uint32) {
	t.Helper()

	r, g, b, _ := img.At(x, y).RGBA()
	near := func(got, want uint32) bool {
		got >>= 8
		return got+40 >= want && got <= want+40
	}
	if !near(r, wantR) || !near(g, wantG) || !near(b, wantB) {
		t.Fatalf("pixel %d,%d is %d,%d,%d, expected about %d,%d,%d", x, y, r>>8, g>>8, b>>8, wantR, wantG, wantB)
	}
}

func TestComposeCollage(t *testing.T) {
	tiles := []image.Image{
		solidImage(color.RGBA{255, 0, 0, 255}, 10),
		nil,
		solidImage(color.RGBA{0, 0, 255, 255}, 10),
		solidImage(color.RGBA{0, 255, 0, 255}, 10),
	}

	data, err := ComposeCollage(tiles, 20, 20, 10, 10, "#ffffff")
	if err != nil {
		t.Fatalf("helpers.ComposeCollage() returned an error: %s", err.Error())
	}

	collage, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("helpers.ComposeCollage() returned an invalid jpeg: %s", err.Error())
	}
	if collage.Bounds().Dx() != 20 || collage.Bounds().Dy() != 20 {
		t.Fatalf("helpers.ComposeCollage() returned a %v image", collage.Bounds())
	}

	assertPixel(t, collage, 5, 5, 255, 0, 0)
	assertPixel(t, collage, 15, 5, 255, 255, 255)
	assertPixel(t, collage, 5, 15, 0, 0, 255)
	assertPixel(t, collage, 15, 15, 0, 255, 0)
}

func TestCollageFromUrls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/red.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, solidImage(color.RGBA{255, 0, 0, 255}, 40))
	}))
	defer server.Close()

	data, err := CollageFromUrls(context.Background(),
		[]string{server.URL + "/red.png", server.URL + "/missing.png", "", server.URL + "/red.png"},
		20, 20, 10, 10, "#000000")
	if err != nil {
		t.Fatalf("helpers.CollageFromUrls() returned an error: %s", err.Error())
	}

	collage, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("helpers.CollageFromUrls() returned an invalid jpeg: %s", err.Error())
	}

	assertPixel(t, collage, 5, 5, 255, 0, 0)
	assertPixel(t, collage, 15, 5, 0, 0, 0)
	assertPixel(t, collage, 5, 15, 0, 0, 0)
	assertPixel(t, collage, 15, 15, 255, 0, 0)
}
