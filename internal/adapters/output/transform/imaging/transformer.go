package imaging

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is used when the caller passes no quality
const DefaultJPEGQuality = 95

// Transformer struct - Raster image re-encoding
type Transformer struct{}

// NewTransformer func - Creates new image transformer
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Convert decodes src in any registered format and encodes it as png or jpg
func (t *Transformer) Convert(ctx context.Context, src, dst, format string, quality int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := decode(src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	w := bufio.NewWriter(out)

	err = encode(w, img, format, quality)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func encode(w *bufio.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	case "jpg", "jpeg":
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}

// flatten draws img over a white background since jpeg has no alpha channel
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Over)
	return canvas
}
