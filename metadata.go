package imagecull

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/bep/imagemeta"
	"github.com/disintegration/imaging"
)

// EXIF orientation values (TIFF tag 0x0112).
const (
	orientNormal     = 1
	orientFlipH      = 2
	orientRotate180  = 3
	orientFlipV      = 4
	orientTranspose  = 5
	orientRotate270  = 6 // 90° clockwise to display
	orientTransverse = 7
	orientRotate90   = 8 // 90° counter-clockwise to display
)

// decode opens and decodes path. When orient is true the EXIF orientation is
// applied so that rotated copies of the same photo fingerprint alike.
func (cfg *Config) decode(path string, orient bool) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if !orient {
		return img, nil
	}
	return applyOrientation(img, ReadOrientation(data)), nil
}

// ReadOrientation returns the EXIF orientation of the raw image bytes, or 1
// when the tag is absent or the metadata cannot be parsed.
func ReadOrientation(data []byte) int {
	if len(data) == 0 {
		return orientNormal
	}
	orientation := orientNormal

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.EXIF && ti.Tag == "Orientation"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if v, ok := tagValueInt(ti.Value); ok && v >= orientNormal && v <= orientRotate90 {
				orientation = v
			}
			return nil
		},
	})
	if err != nil {
		return orientNormal
	}
	return orientation
}

// tagValueInt extracts an integer from an EXIF tag value, whose concrete type
// depends on the TIFF field type the camera wrote.
func tagValueInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint16:
		return int(val), true
	case uint32:
		return int(val), true
	case uint8:
		return int(val), true
	case []any:
		if len(val) > 0 {
			return tagValueInt(val[0])
		}
	}
	return 0, false
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case orientFlipH:
		return imaging.FlipH(img)
	case orientRotate180:
		return imaging.Rotate180(img)
	case orientFlipV:
		return imaging.FlipV(img)
	case orientTranspose:
		return imaging.Transpose(img)
	case orientRotate270:
		return imaging.Rotate270(img)
	case orientTransverse:
		return imaging.Transverse(img)
	case orientRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
