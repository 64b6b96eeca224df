package life

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Snapshot colors.
var (
	AliveColor = color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	DeadColor  = color.RGBA{R: 0x10, G: 0x14, B: 0x1c, A: 0xff}
	DiffColor  = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
)

// Image renders a population one pixel per cell.
func Image(c Cells, g Grid) (*image.RGBA, error) {
	if err := c.Check(g); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			col := DeadColor
			if c[g.Index(x, y)] != Dead {
				col = AliveColor
			}
			img.SetRGBA(x, y, col)
		}
	}
	return img, nil
}

// DiffImage renders b, painting every cell that differs from a in DiffColor.
func DiffImage(a, b Cells, g Grid) (*image.RGBA, error) {
	img, err := Image(b, g)
	if err != nil {
		return nil, err
	}
	if err := a.Check(g); err != nil {
		return nil, err
	}
	for _, i := range Diff(a, b) {
		img.SetRGBA(i%g.Width, i/g.Width, DiffColor)
	}
	return img, nil
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling so
// cell edges stay sharp. Factors below 2 return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SideBySide places images left to right on a single canvas separated by a
// gap of DeadColor pixels.
func SideBySide(gap int, imgs ...image.Image) image.Image {
	w, h := 0, 0
	for i, img := range imgs {
		b := img.Bounds()
		w += b.Dx()
		if i > 0 {
			w += gap
		}
		h = max(h, b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(DeadColor), image.Point{}, draw.Src)

	x := 0
	for _, img := range imgs {
		b := img.Bounds()
		r := image.Rect(x, 0, x+b.Dx(), b.Dy())
		draw.Draw(dst, r, img, b.Min, draw.Src)
		x += b.Dx() + gap
	}
	return dst
}

// EncodePNG writes the population as a PNG, each cell scale x scale pixels.
func EncodePNG(w io.Writer, c Cells, g Grid, scale int) error {
	img, err := Image(c, g)
	if err != nil {
		return err
	}
	return png.Encode(w, Scale(img, scale))
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("life: encode %s: %w", path, err)
	}
	return f.Close()
}
