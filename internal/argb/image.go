package argb

import (
	"fmt"
	"image"
)

// ImageBuffer is a raster image: row-major, interleaved channels, origin
// top-left. Channels is 3 (RGB) or 4 (RGBA).
type ImageBuffer struct {
	Width    int
	Height   int
	Channels int
	Data     []byte
}

// Validate checks the buffer invariants.
func (b ImageBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("image buffer: invalid dimensions %dx%d", b.Width, b.Height)
	}
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("image buffer: unsupported channel count %d", b.Channels)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Data) != want {
		return fmt.Errorf("image buffer: data length %d, want %d", len(b.Data), want)
	}
	return nil
}

// FromImage flattens an image.Image into a 4-channel RGBA buffer.
func FromImage(src image.Image) ImageBuffer {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	buf := ImageBuffer{
		Width:    width,
		Height:   height,
		Channels: 4,
		Data:     make([]byte, width*height*4),
	}
	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
			copy(buf.Data[y*width*4:], row)
		}
		return buf
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			buf.Data[i] = byte(r >> 8)
			buf.Data[i+1] = byte(g >> 8)
			buf.Data[i+2] = byte(b >> 8)
			buf.Data[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return buf
}

// ToImage reassembles the buffer into an *image.NRGBA. RGB buffers get an
// opaque alpha channel.
func (b ImageBuffer) ToImage() (*image.NRGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			src := (y*b.Width + x) * b.Channels
			dst := y*out.Stride + x*4
			out.Pix[dst] = b.Data[src]
			out.Pix[dst+1] = b.Data[src+1]
			out.Pix[dst+2] = b.Data[src+2]
			if b.Channels == 4 {
				out.Pix[dst+3] = b.Data[src+3]
			} else {
				out.Pix[dst+3] = 0xff
			}
		}
	}
	return out, nil
}
