// Package preview renders first-page PNG previews for downloaded PDFs.
// Converter backends are tried in order; a locally rendered placeholder
// guarantees the generator never comes back empty-handed for a valid PDF.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Converter renders the first page of a PDF to a PNG file. Implementations
// must not modify the source PDF; success is judged by the caller checking
// the output file exists with non-zero size.
type Converter interface {
	Name() string
	Convert(ctx context.Context, pdfPath, outputPath string) error
}

// FitzConverter rasterizes in-process through MuPDF. First in the chain:
// no external binaries, no subprocess overhead.
type FitzConverter struct {
	DPI float64
}

// Name identifies the converter in logs
func (c *FitzConverter) Name() string { return "go-fitz" }

// Convert rasterizes page 0 of the PDF to a PNG file
func (c *FitzConverter) Convert(ctx context.Context, pdfPath, outputPath string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return fmt.Errorf("PDF has no pages")
	}

	dpi := c.DPI
	if dpi <= 0 {
		dpi = 150
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return fmt.Errorf("failed to rasterize page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// PopplerConverter shells out to pdftoppm. Second in the chain for
// machines where the in-process rasterizer chokes on a file.
type PopplerConverter struct{}

// Name identifies the converter in logs
func (c *PopplerConverter) Name() string { return "pdftoppm" }

// Convert invokes pdftoppm for page 1 only
func (c *PopplerConverter) Convert(ctx context.Context, pdfPath, outputPath string) error {
	bin, err := exec.LookPath("pdftoppm")
	if err != nil {
		return fmt.Errorf("pdftoppm not available: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, popplerArgs(pdfPath, outputPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// popplerArgs builds the pdftoppm argument list. pdftoppm appends .png to
// its output prefix itself.
func popplerArgs(pdfPath, outputPath string) []string {
	prefix := strings.TrimSuffix(outputPath, ".png")
	return []string{"-png", "-f", "1", "-l", "1", "-r", "150", "-singlefile", pdfPath, prefix}
}

// GhostscriptConverter shells out to gs, the last real rasterizer tried.
type GhostscriptConverter struct{}

// Name identifies the converter in logs
func (c *GhostscriptConverter) Name() string { return "ghostscript" }

// Convert invokes ghostscript for the first page only
func (c *GhostscriptConverter) Convert(ctx context.Context, pdfPath, outputPath string) error {
	bin, err := exec.LookPath("gs")
	if err != nil {
		return fmt.Errorf("ghostscript not available: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, ghostscriptArgs(pdfPath, outputPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ghostscript failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ghostscriptArgs builds the gs argument list
func ghostscriptArgs(pdfPath, outputPath string) []string {
	return []string{
		"-dNOPAUSE", "-dBATCH", "-dSAFER",
		"-sDEVICE=png16m",
		"-dFirstPage=1", "-dLastPage=1",
		"-r150",
		"-sOutputFile=" + outputPath,
		pdfPath,
	}
}
