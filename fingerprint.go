package imagecull

import (
	"context"
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Fingerprint is a 64-bit perceptual hash. Visually similar images yield
// fingerprints that differ in few bits.
type Fingerprint uint64

// Distance is the Hamming distance: the number of differing bits.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// HashedImage pairs a file with its fingerprint.
type HashedImage struct {
	Path        string
	Fingerprint Fingerprint
}

// Fingerprint computes the configured perceptual hash of img.
func (cfg *Config) Fingerprint(img image.Image) (Fingerprint, error) {
	cfg.defaults()

	var (
		h   *goimagehash.ImageHash
		err error
	)
	switch cfg.HashAlgorithm {
	case HashDifference:
		h, err = goimagehash.DifferenceHash(img)
	case HashAverage:
		h, err = goimagehash.AverageHash(img)
	default:
		h, err = goimagehash.PerceptionHash(img)
	}
	if err != nil {
		return 0, err
	}
	return Fingerprint(h.GetHash()), nil
}

// HashFile decodes path and returns its fingerprint.
func (cfg *Config) HashFile(path string) (Fingerprint, error) {
	cfg.defaults()

	img, err := cfg.decode(path, cfg.AutoOrient)
	if err != nil {
		return 0, err
	}
	fp, err := cfg.Fingerprint(img)
	if err != nil {
		return 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return fp, nil
}

// HashFolder fingerprints files in order. Files that fail to decode are left
// out of the result (absence, not a verdict) and logged at debug level.
func (cfg *Config) HashFolder(ctx context.Context, files []string) ([]HashedImage, error) {
	cfg.defaults()

	hashed := make([]HashedImage, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return hashed, err
		}
		fp, err := cfg.HashFile(path)
		if err != nil {
			cfg.Logger.Debug("imagecull: hash skipped", "path", path, "error", err)
			continue
		}
		hashed = append(hashed, HashedImage{Path: path, Fingerprint: fp})
	}
	return hashed, nil
}
