package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif" // register gif
	_ "image/png" // register png

	"golang.org/x/image/draw"

	pkgerrors "carteirinha/pkg/errors"
)

const (
	// MaxBytes is the upload size ceiling the normalizer works toward.
	MaxBytes = 300 * 1024
	// MaxDimension caps the longer side of the decoded bitmap.
	MaxDimension = 1200

	startQuality = 90
	minQuality   = 10
	qualityStep  = 10
)

// Normalize turns an arbitrary uploaded image into a JPEG at most MaxBytes
// long. Inputs already under the ceiling pass through unchanged. Oversized
// inputs are scaled down to MaxDimension on the longer side, then re-encoded
// with strictly decreasing quality until the ceiling is met or quality bottoms
// out, at which point the smallest result so far is returned regardless of
// size. Bounded: at most 9 re-encodes.
func Normalize(data []byte) ([]byte, error) {
	if len(data) <= MaxBytes {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, "unsupported or corrupt image", err)
	}
	img = scaleDown(img)

	var best []byte
	for quality := startQuality; quality >= minQuality; quality -= qualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
		}
		if buf.Len() <= MaxBytes {
			return buf.Bytes(), nil
		}
	}
	return best, nil
}

// scaleDown shrinks img so the longer side equals MaxDimension, preserving
// aspect ratio. Images already within bounds are returned as is.
func scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= MaxDimension && h <= MaxDimension {
		return img
	}
	if w >= h {
		h = max(h*MaxDimension/w, 1)
		w = MaxDimension
	} else {
		w = max(w*MaxDimension/h, 1)
		h = MaxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
