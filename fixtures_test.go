package imagecull

import (
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

// blockImage paints a 16×16 grid of red or gray blocks chosen by seed. Half the
// pixels are fully saturated and half are gray, so the saturation filter keeps
// it; different seeds give unrelated perceptual hashes.
func blockImage(w, h int, seed uint64) *image.NRGBA {
	const grid = 16
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cells := make([]bool, grid*grid)
	for i := range cells {
		cells[i] = rng.IntN(2) == 0
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := gray
			if cells[(y*grid/h)*grid+x*grid/w] {
				c = red
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return err == nil
}

// quietConfig returns a Config for root whose logger discards output.
func quietConfig(root string) *Config {
	return &Config{
		Root:   root,
		Logger: slog.New(slog.DiscardHandler),
	}
}
