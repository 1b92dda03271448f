package document

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/docport/docport/internal/capture"
)

// A4 page dimensions in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// AssemblePDF encodes each page raster as JPEG and lays it out on one A4
// page, returning the paginated document as a single artifact with a
// timestamped filename.
func AssemblePDF(pages []image.Image, generatedAt time.Time) (*capture.Artifact, error) {
	if len(pages) == 0 {
		return nil, &capture.RenderError{Err: fmt.Errorf("no pages to assemble")}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	for i, page := range pages {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: capture.JPEGQuality}); err != nil {
			return nil, &capture.RenderError{Err: fmt.Errorf("encode page %d: %w", i+1, err)}
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, &capture.RenderError{Err: fmt.Errorf("write pdf: %w", err)}
	}

	filename := fmt.Sprintf("diagnosis-card-%s.pdf", generatedAt.Format("20060102-150405"))
	return capture.NewArtifact(filename, "application/pdf", out.Bytes()), nil
}
