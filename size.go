package imagecull

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SizeResult is the outcome of the size check for one file.
type SizeResult struct {
	Width, Height int
	Undersized    bool
}

// CheckSize reads only the image header and reports whether either dimension
// is below cfg.MinDimension.
func (cfg *Config) CheckSize(path string) (SizeResult, error) {
	cfg.defaults()

	f, err := os.Open(path)
	if err != nil {
		return SizeResult{}, err
	}
	defer f.Close()

	imgCfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return SizeResult{}, fmt.Errorf("decode header: %w", err)
	}

	return SizeResult{
		Width:      imgCfg.Width,
		Height:     imgCfg.Height,
		Undersized: imgCfg.Width < cfg.MinDimension || imgCfg.Height < cfg.MinDimension,
	}, nil
}
