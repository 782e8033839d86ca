package preview

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/infrastructure/storage"
)

// fakeConverter simulates a converter backend. It can fail outright, claim
// success while writing nothing, or write real output.
type fakeConverter struct {
	name   string
	err    error
	output []byte
	calls  int
}

func (c *fakeConverter) Name() string { return c.name }

func (c *fakeConverter) Convert(ctx context.Context, pdfPath, outputPath string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	if c.output == nil {
		return nil // claims success, writes nothing
	}
	return os.WriteFile(outputPath, c.output, 0644)
}

func setupPreviewTest(t *testing.T, converters ...Converter) (*Generator, *storage.LocalAssetStore, string) {
	t.Helper()
	store := storage.NewLocalAssetStore(t.TempDir(), zap.NewNop())
	require.NoError(t, store.EnsureLayout())

	pdfDir, _ := store.DirFor("pdfs")
	pdfPath := filepath.Join(pdfDir, "sticker.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4 test document"), 0644))

	gen := NewGeneratorWithConverters(store, converters, zap.NewNop())
	return gen, store, pdfPath
}

func TestGeneratePreviewMissingSource(t *testing.T) {
	gen, _, _ := setupPreviewTest(t, &fakeConverter{name: "a", output: []byte("png")})

	asset, err := gen.GeneratePreview(context.Background(), "/nonexistent/file.pdf", "sticker")
	assert.NoError(t, err)
	assert.Nil(t, asset)
}

func TestGeneratePreviewEmptySource(t *testing.T) {
	conv := &fakeConverter{name: "a", output: []byte("png")}
	gen, store, _ := setupPreviewTest(t, conv)

	pdfDir, _ := store.DirFor("pdfs")
	emptyPDF := filepath.Join(pdfDir, "empty.pdf")
	require.NoError(t, os.WriteFile(emptyPDF, nil, 0644))

	asset, err := gen.GeneratePreview(context.Background(), emptyPDF, "empty")
	assert.NoError(t, err)
	assert.Nil(t, asset)
	assert.Zero(t, conv.calls)
}

func TestGeneratePreviewFirstConverterWins(t *testing.T) {
	first := &fakeConverter{name: "go-fitz", output: []byte("rendered png bytes")}
	second := &fakeConverter{name: "pdftoppm", output: []byte("never used")}
	gen, store, pdfPath := setupPreviewTest(t, first, second)

	asset, err := gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
	assert.Equal(t, "go-fitz", asset.Converter)
	assert.Equal(t, "app://previews/sticker_preview.png", asset.PublicURL)
	assert.Positive(t, store.FileSize(asset.LocalPath))
}

func TestGeneratePreviewFallsThroughChain(t *testing.T) {
	failing := &fakeConverter{name: "go-fitz", err: errors.New("mupdf cannot open")}
	silent := &fakeConverter{name: "pdftoppm"} // claims success, writes nothing
	working := &fakeConverter{name: "ghostscript", output: []byte("gs output")}
	gen, _, pdfPath := setupPreviewTest(t, failing, silent, working)

	asset, err := gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, silent.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, "ghostscript", asset.Converter)

	saved, err := os.ReadFile(asset.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("gs output"), saved)
}

func TestGeneratePreviewPlaceholderGuarantee(t *testing.T) {
	gen, store, pdfPath := setupPreviewTest(t,
		&fakeConverter{name: "go-fitz", err: errors.New("broken")},
		&fakeConverter{name: "pdftoppm", err: errors.New("not installed")},
	)

	asset, err := gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)
	require.NotNil(t, asset, "a valid PDF always yields a preview asset")

	assert.Equal(t, "placeholder", asset.Converter)
	assert.Positive(t, store.FileSize(asset.LocalPath))

	// The placeholder is a real decodable PNG.
	data, err := os.ReadFile(asset.LocalPath)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, placeholderWidth, img.Bounds().Dx())
	assert.Equal(t, placeholderHeight, img.Bounds().Dy())
}

func TestGeneratePreviewShortCircuitsOnExisting(t *testing.T) {
	conv := &fakeConverter{name: "go-fitz", output: []byte("png")}
	gen, store, pdfPath := setupPreviewTest(t, conv)

	previewPath, _ := store.PreviewLocation("sticker")
	require.NoError(t, os.WriteFile(previewPath, []byte("existing preview"), 0644))

	asset, err := gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Zero(t, conv.calls, "existing preview is never regenerated")
	saved, err := os.ReadFile(asset.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("existing preview"), saved)
}

func TestGeneratePreviewRegeneratesEmptyPreview(t *testing.T) {
	conv := &fakeConverter{name: "go-fitz", output: []byte("fresh png")}
	gen, store, pdfPath := setupPreviewTest(t, conv)

	// A zero-length preview counts as missing.
	previewPath, _ := store.PreviewLocation("sticker")
	require.NoError(t, os.WriteFile(previewPath, nil, 0644))

	asset, err := gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, 1, conv.calls)
	assert.Positive(t, store.FileSize(asset.LocalPath))
}

func TestGeneratePreviewDoesNotTouchSource(t *testing.T) {
	gen, _, pdfPath := setupPreviewTest(t,
		&fakeConverter{name: "go-fitz", err: errors.New("fails")},
	)

	before, err := os.ReadFile(pdfPath)
	require.NoError(t, err)

	_, err = gen.GeneratePreview(context.Background(), pdfPath, "sticker")
	require.NoError(t, err)

	after, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPopplerArgs(t *testing.T) {
	args := popplerArgs("/data/downloads/pdfs/label.pdf", "/data/previews/label_preview.png")
	assert.Equal(t, []string{
		"-png", "-f", "1", "-l", "1", "-r", "150", "-singlefile",
		"/data/downloads/pdfs/label.pdf",
		"/data/previews/label_preview", // pdftoppm appends .png itself
	}, args)
}

func TestGhostscriptArgs(t *testing.T) {
	args := ghostscriptArgs("/data/downloads/pdfs/label.pdf", "/data/previews/label_preview.png")
	assert.Contains(t, args, "-sOutputFile=/data/previews/label_preview.png")
	assert.Contains(t, args, "-sDEVICE=png16m")
	assert.Contains(t, args, "-dFirstPage=1")
	assert.Contains(t, args, "-dLastPage=1")
	assert.Equal(t, "/data/downloads/pdfs/label.pdf", args[len(args)-1])
}

func TestRenderPlaceholderPNG(t *testing.T) {
	data, err := renderPlaceholderPNG()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, placeholderWidth, img.Bounds().Dx())
	assert.Equal(t, placeholderHeight, img.Bounds().Dy())
}
