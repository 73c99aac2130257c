// Package media decodes uploaded images, stretches them to a common size and
// encodes them as an animated GIF.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"strings"
	"time"

	"github.com/soniakeys/quant/median"
	xdraw "golang.org/x/image/draw"
)

// MaxPixels bounds the declared width*height of a source image. Larger images
// are rejected from their header before any pixel buffer is allocated.
const MaxPixels = 50_000_000

// AllowedExtensions are the filename suffixes accepted for source images.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png"}

var (
	// ErrDecode wraps every failure to decode source bytes as an image.
	ErrDecode = errors.New("image decode failed")
	// ErrNoFrames is returned by EncodeGIF when given nothing to encode.
	ErrNoFrames = errors.New("no frames to encode")
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// HasImageExtension reports whether name ends in .jpg, .jpeg or .png, ignoring case.
func HasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DetectExtension returns ".png" for PNG content and ".jpg" for anything else.
func DetectExtension(data []byte) string {
	if bytes.HasPrefix(data, pngMagic) {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type matching an extension from DetectExtension.
func ContentType(ext string) string {
	if ext == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}

// Decode reads a JPEG or PNG image and returns it as an opaque RGB raster
// anchored at the origin. Alpha is discarded, not composited.
func Decode(data []byte) (*image.RGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return toRGB(src), nil
}

func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// Resize stretches img to size without preserving aspect ratio.
func Resize(img *image.RGBA, size image.Point) *image.RGBA {
	if img.Bounds().Size() == size {
		return img
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodeGIF writes frames as one looping animated GIF. Every frame is shown
// for delay, rounded down to GIF's 10ms resolution.
func EncodeGIF(w io.Writer, frames []*image.RGBA, delay time.Duration) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	cs := int(delay / (10 * time.Millisecond))
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}
	for _, f := range frames {
		anim.Image = append(anim.Image, quantize(f))
		anim.Delay = append(anim.Delay, cs)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

// quantize maps a frame onto its own palette. Frames with at most 256 colours
// are indexed exactly; richer frames get a median-cut palette and dithering.
func quantize(img *image.RGBA) *image.Paletted {
	if p, ok := exactPaletted(img); ok {
		return p
	}
	b := img.Bounds()
	pal := median.Quantizer(256).Quantize(make(color.Palette, 0, 256), img)
	p := image.NewPaletted(b, pal)
	xdraw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}

func exactPaletted(img *image.RGBA) (*image.Paletted, bool) {
	b := img.Bounds()
	index := make(map[color.RGBA]uint8, 256)
	pal := make(color.Palette, 0, 256)
	p := image.NewPaletted(b, nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			i, ok := index[c]
			if !ok {
				if len(pal) == 256 {
					return nil, false
				}
				i = uint8(len(pal))
				index[c] = i
				pal = append(pal, c)
			}
			p.SetColorIndex(x, y, i)
		}
	}
	p.Palette = pal
	return p, true
}
