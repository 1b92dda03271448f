package document

import (
	"image"
	"image/color"
	"testing"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		rasterHeight, pageHeight, want int
	}{
		{0, 100, 0},
		{-5, 100, 0},
		{100, 0, 0},
		{1, 100, 1},
		{99, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{250, 100, 3},
		{2246, 2246, 1},
		{2247, 2246, 2},
	}
	for _, tt := range tests {
		if got := PageCount(tt.rasterHeight, tt.pageHeight); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.rasterHeight, tt.pageHeight, got, tt.want)
		}
	}
}

// rowColoredRaster colors each row by its index so slices can be traced
// back to their source rows.
func rowColoredRaster(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := color.RGBA{R: uint8(y % 256), G: uint8((y / 256) % 256), B: 7, A: 255}
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSliceRasterGaplessAndNonOverlapping(t *testing.T) {
	const width, height, pageHeight = 4, 250, 100
	raster := rowColoredRaster(width, height)

	pages := SliceRaster(raster, pageHeight)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	for i, page := range pages {
		b := page.Bounds()
		if b.Dx() != width || b.Dy() != pageHeight {
			t.Fatalf("page %d bounds = %v, want %dx%d", i, b, width, pageHeight)
		}
	}

	// Every source row appears exactly once, in order.
	for y := 0; y < height; y++ {
		pageIdx := y / pageHeight
		rowInPage := y % pageHeight
		want := raster.At(0, y)
		got := pages[pageIdx].At(0, rowInPage)
		if got != want {
			t.Fatalf("row %d: page %d row %d = %v, want %v", y, pageIdx, rowInPage, got, want)
		}
	}
}

func TestSliceRasterPadsLastPageWithWhite(t *testing.T) {
	raster := rowColoredRaster(4, 150)
	pages := SliceRaster(raster, 100)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}

	last := pages[1]
	r, g, b, a := last.At(0, 60).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("padding pixel = (%d,%d,%d,%d), want white", r, g, b, a)
	}
}

func TestSliceRasterRespectsNonZeroOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 14, 120))
	for y := 20; y < 120; y++ {
		for x := 10; x < 14; x++ {
			src.Set(x, y, color.RGBA{R: uint8(y), A: 255})
		}
	}
	pages := SliceRaster(src, 50)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	got := pages[0].At(0, 0)
	want := src.At(10, 20)
	if got != want {
		t.Fatalf("first pixel = %v, want %v", got, want)
	}
}

func TestSliceRasterEmpty(t *testing.T) {
	if pages := SliceRaster(image.NewRGBA(image.Rect(0, 0, 0, 0)), 100); pages != nil {
		t.Fatalf("got %d pages for empty raster, want none", len(pages))
	}
}
