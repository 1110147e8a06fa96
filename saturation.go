package imagecull

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// Saturation tiers, reported in SaturationVerdict.Tier.
const (
	TierLow     = "low"      // mean below Low: monotonous regardless of spread
	TierHigh    = "high"     // mean above High
	TierMidHigh = "mid_high" // mean in (MidHigh, High]
	TierMid     = "mid"      // mean in (Mid, MidHigh]
	TierNone    = "none"     // fell through every strict comparison
)

// SaturationVerdict is the outcome of the tiered saturation policy.
type SaturationVerdict struct {
	Mean       float64
	Std        float64
	Tier       string
	MinStd     float64 // std cutoff applied in this tier (0 for low/none)
	Quarantine bool
}

// ClassifySaturation applies the tiered policy. Tiers are tried in order and
// every comparison is strict, so a mean exactly on a boundary drops to the
// next tier (a mean equal to t.Low and t.Mid is kept).
func ClassifySaturation(mean, std float64, t SaturationThresholds) SaturationVerdict {
	v := SaturationVerdict{Mean: mean, Std: std}

	switch {
	case mean < t.Low:
		v.Tier = TierLow
		v.Quarantine = true
	case mean > t.High:
		v.Tier, v.MinStd = TierHigh, t.HighStd
	case mean > t.MidHigh:
		v.Tier, v.MinStd = TierMidHigh, t.MidHighStd
	case mean > t.Mid:
		v.Tier, v.MinStd = TierMid, t.MidStd
	default:
		v.Tier = TierNone
	}

	if v.MinStd > 0 && std < v.MinStd {
		v.Quarantine = true
	}
	return v
}

// SaturationStats returns the population mean and standard deviation of the
// 8-bit HSV saturation channel over every pixel of img. Alpha is ignored.
func SaturationStats(img image.Image) (mean, std float64, err error) {
	b := img.Bounds()
	if b.Empty() {
		return 0, 0, errors.New("empty image")
	}

	nrgba := imaging.Clone(img)

	var hist [256]float64
	pix := nrgba.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		hist[saturation(pix[i], pix[i+1], pix[i+2])]++
	}

	levels := make([]float64, len(hist))
	for i := range levels {
		levels[i] = float64(i)
	}
	if b.Dx()*b.Dy() == 1 {
		return stat.Mean(levels, hist[:]), 0, nil
	}
	mean, std = stat.PopMeanStdDev(levels, hist[:])
	return mean, std, nil
}

// saturation is the HSV S channel scaled to 0..255 and truncated.
func saturation(r, g, b uint8) uint8 {
	hi := max(r, g, b)
	lo := min(r, g, b)
	if hi == 0 || hi == lo {
		return 0
	}
	return uint8(int(hi-lo) * 255 / int(hi))
}

// CheckSaturation decodes path and applies the tiered policy from cfg.
func (cfg *Config) CheckSaturation(path string) (SaturationVerdict, error) {
	cfg.defaults()

	img, err := cfg.decode(path, false)
	if err != nil {
		return SaturationVerdict{}, err
	}
	mean, std, err := SaturationStats(img)
	if err != nil {
		return SaturationVerdict{}, fmt.Errorf("saturation %s: %w", path, err)
	}
	return ClassifySaturation(mean, std, cfg.Saturation), nil
}
