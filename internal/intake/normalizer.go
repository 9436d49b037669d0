package intake

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	// MaxImageWidth and MaxImageHeight bound every normalized image.
	MaxImageWidth  = 1024
	MaxImageHeight = 1024

	// ImageQuality is the re-encode quality on a 0..1 scale.
	ImageQuality = 0.8
)

type codec struct {
	decode func([]byte) (image.Image, error)
	encode func(*bytes.Buffer, image.Image) error
}

var imageCodecs = map[string]codec{
	MimeJPEG: {
		decode: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		encode: func(w *bytes.Buffer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: int(ImageQuality * 100)})
		},
	},
	MimePNG: {
		decode: func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		encode: func(w *bytes.Buffer, img image.Image) error { return png.Encode(w, img) },
	},
	MimeGIF: {
		decode: func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
		encode: func(w *bytes.Buffer, img image.Image) error { return gif.Encode(w, img, nil) },
	},
	"image/bmp": {
		decode: func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
		encode: func(w *bytes.Buffer, img image.Image) error { return bmp.Encode(w, img) },
	},
	"image/tiff": {
		decode: func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
		encode: func(w *bytes.Buffer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		},
	},
	"image/webp": {
		decode: func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
	},
}

// ImageNormalizer bounds images to MaxImageWidth x MaxImageHeight and re-encodes them
type ImageNormalizer struct {
	maxWidth  int
	maxHeight int
}

// NewImageNormalizer creates a normalizer with the default bounding box
func NewImageNormalizer() *ImageNormalizer {
	return &ImageNormalizer{maxWidth: MaxImageWidth, maxHeight: MaxImageHeight}
}

// TargetSize computes the output dimensions for a w x h image.
// The longer side is clamped to the box and the other follows proportionally.
func (n *ImageNormalizer) TargetSize(w, h int) (int, int) {
	fw, fh := float64(w), float64(h)
	if w > h {
		if w > n.maxWidth {
			fh *= float64(n.maxWidth) / fw
			fw = float64(n.maxWidth)
		}
	} else if h > n.maxHeight {
		fw *= float64(n.maxHeight) / fh
		fh = float64(n.maxHeight)
	}
	return max(int(fw), 1), max(int(fh), 1)
}

// Normalize re-encodes an image file; non-images are returned unchanged.
// Every image is re-encoded, including those already inside the box.
func (n *ImageNormalizer) Normalize(f FileDescriptor) (FileDescriptor, error) {
	if !f.IsImage() {
		return f, nil
	}

	c, ok := imageCodecs[f.MimeType]
	if !ok {
		return f, WrapDecodeFailure(f.Name, fmt.Errorf("no decoder for %s", f.MimeType))
	}

	src, err := c.decode(f.Data)
	if err != nil {
		return f, WrapDecodeFailure(f.Name, fmt.Errorf("decode: %w", err))
	}
	if c.encode == nil {
		return f, WrapDecodeFailure(f.Name, fmt.Errorf("no encoder for %s", f.MimeType))
	}

	b := src.Bounds()
	tw, th := n.TargetSize(b.Dx(), b.Dy())

	var out image.Image = src
	if tw != b.Dx() || th != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := c.encode(&buf, out); err != nil {
		return f, WrapDecodeFailure(f.Name, fmt.Errorf("encode: %w", err))
	}

	return FileDescriptor{
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     int64(buf.Len()),
		Data:     buf.Bytes(),
	}, nil
}
