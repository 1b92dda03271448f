// Package document renders a structured on-screen form into a fixed-format
// paginated PDF suitable for upload: rasterize the form subtree at a
// supersampling factor, slice the raster into page-height strips top to
// bottom, and assemble one PDF page per strip.
package document

import (
	"image"
	"image/color"
	"image/draw"
)

// PageCount returns ceil(rasterHeight / pageHeight), the number of pages
// needed to hold a raster of the given height.
func PageCount(rasterHeight, pageHeight int) int {
	if rasterHeight <= 0 || pageHeight <= 0 {
		return 0
	}
	return (rasterHeight + pageHeight - 1) / pageHeight
}

// SliceRaster cuts the raster into successive vertical slices of
// pageHeight pixels. Slices are gapless and non-overlapping; the last
// slice is padded with white below the remaining content so every page has
// identical dimensions.
func SliceRaster(raster image.Image, pageHeight int) []image.Image {
	bounds := raster.Bounds()
	count := PageCount(bounds.Dy(), pageHeight)
	if count == 0 {
		return nil
	}

	pages := make([]image.Image, 0, count)
	for i := 0; i < count; i++ {
		page := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), pageHeight))
		draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

		srcTop := bounds.Min.Y + i*pageHeight
		srcBottom := srcTop + pageHeight
		if srcBottom > bounds.Max.Y {
			srcBottom = bounds.Max.Y
		}
		sliceRect := image.Rect(0, 0, bounds.Dx(), srcBottom-srcTop)
		draw.Draw(page, sliceRect, raster, image.Point{X: bounds.Min.X, Y: srcTop}, draw.Src)
		pages = append(pages, page)
	}
	return pages
}
