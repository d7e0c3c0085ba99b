package argb

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownDimensions reports that the size-detection heuristic could not
// map a byte count to any plausible image geometry.
var ErrUnknownDimensions = errors.New("unknown image dimensions")

// commonSizes is the ordered candidate list tried when a packed file's size
// does not match its declared dimensions. Order matters: the first match
// wins, and 256x256 (the stock logo size) must stay in front of 512x128
// which covers the same pixel count.
var commonSizes = [][2]int{
	{256, 256},
	{512, 512},
	{128, 128},
	{512, 128},
	{256, 512},
	{360, 640},
	{480, 854},
	{720, 1280},
}

// Encode packs the image into the export byte layout: rotated 180°, then
// B,G,R,A per pixel. Sources without an alpha channel pack opaque alpha.
func Encode(img ImageBuffer) ([]byte, error) {
	return pack(img, false, false)
}

// EncodeLogo packs a logo image. On top of the 180° rotation the rows are
// reversed a second time, so the stored image ends up mirrored only along
// the horizontal axis. The renderer has compensated for this since the first
// firmware release; keep it bit-for-bit. Logo alpha is always opaque.
func EncodeLogo(img ImageBuffer) ([]byte, error) {
	return pack(img, true, true)
}

func pack(img ImageBuffer, reverseRows, forceOpaque bool) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, img.Width*img.Height*4)
	i := 0
	for y := 0; y < img.Height; y++ {
		// The 180° rotation reverses both axes; the logo quirk flips the
		// rows straight back, leaving only the columns reversed.
		srcY := img.Height - 1 - y
		if reverseRows {
			srcY = y
		}
		for x := 0; x < img.Width; x++ {
			srcX := img.Width - 1 - x
			src := (srcY*img.Width + srcX) * img.Channels
			r := img.Data[src]
			g := img.Data[src+1]
			b := img.Data[src+2]
			a := byte(0xff)
			if img.Channels == 4 && !forceOpaque {
				a = img.Data[src+3]
			}
			out[i] = b
			out[i+1] = g
			out[i+2] = r
			out[i+3] = a
			i += 4
		}
	}
	return out, nil
}

// Decode interprets legacy packed bytes as A,R,G,B tuples and reassembles
// them into an RGBA buffer at the supplied dimensions. Note the byte order
// differs from Encode's output; see the package comment.
func Decode(data []byte, width, height int) (ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return ImageBuffer{}, fmt.Errorf("decode: invalid dimensions %dx%d", width, height)
	}
	if want := width * height * 4; len(data) != want {
		return ImageBuffer{}, fmt.Errorf("decode: %d bytes for %dx%d, want %d", len(data), width, height, want)
	}
	out := ImageBuffer{
		Width:    width,
		Height:   height,
		Channels: 4,
		Data:     make([]byte, len(data)),
	}
	for i := 0; i < len(data); i += 4 {
		a, r, g, b := data[i], data[i+1], data[i+2], data[i+3]
		out.Data[i] = r
		out.Data[i+1] = g
		out.Data[i+2] = b
		out.Data[i+3] = a
	}
	return out, nil
}

// DetectDimensions maps a packed file's byte count to image dimensions:
// first the fixed candidate list, then a perfect-square fallback.
func DetectDimensions(byteCount int) (width, height int, err error) {
	if byteCount <= 0 {
		return 0, 0, ErrUnknownDimensions
	}
	pixelCount := byteCount / 4
	for _, size := range commonSizes {
		if size[0]*size[1] == pixelCount {
			return size[0], size[1], nil
		}
	}
	side := int(math.Sqrt(float64(pixelCount)))
	if side > 0 && side*side == pixelCount {
		return side, side, nil
	}
	return 0, 0, ErrUnknownDimensions
}
