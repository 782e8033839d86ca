package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// Placeholder card dimensions, an A-series aspect ratio at screen scale.
const (
	placeholderWidth  = 400
	placeholderHeight = 566
)

// renderPlaceholderPNG draws the stand-in preview card: a light-gray panel
// with a border and a diagonal cross marking it as "no preview available".
// Rendered in-process so the fallback can never itself be a missing asset.
func renderPlaceholderPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))

	bg := color.RGBA{R: 0xEE, G: 0xEF, B: 0xF1, A: 0xFF}
	line := color.RGBA{R: 0xC4, G: 0xC8, B: 0xCE, A: 0xFF}

	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for x := 0; x < placeholderWidth; x++ {
		img.SetRGBA(x, 0, line)
		img.SetRGBA(x, 1, line)
		img.SetRGBA(x, placeholderHeight-2, line)
		img.SetRGBA(x, placeholderHeight-1, line)

		// Diagonals scaled to the card's aspect ratio.
		y := x * placeholderHeight / placeholderWidth
		img.SetRGBA(x, y, line)
		img.SetRGBA(x, placeholderHeight-1-y, line)
	}
	for y := 0; y < placeholderHeight; y++ {
		img.SetRGBA(0, y, line)
		img.SetRGBA(1, y, line)
		img.SetRGBA(placeholderWidth-2, y, line)
		img.SetRGBA(placeholderWidth-1, y, line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
