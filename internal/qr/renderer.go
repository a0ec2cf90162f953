package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Renderer produces and stores the PNG image for a code. The payload is
// whatever text the image must encode; deciding that text is the
// caller's job.
type Renderer interface {
	RenderToFile(id int64, payload, colorName string, logo *string) (string, error)
	Remove(id int64) error
	ImagePath(id int64) string
	PublicURL(id int64) string
}

// FileRenderer renders QR codes to PNG files under a single output
// directory, one overwritable file per code id.
type FileRenderer struct {
	outputDir string
	baseURL   string
	size      int
	logoScale float64
	logger    *zap.Logger
}

func NewFileRenderer(outputDir, baseURL string, size int, logoScale float64, logger *zap.Logger) *FileRenderer {
	return &FileRenderer{
		outputDir: outputDir,
		baseURL:   baseURL,
		size:      size,
		logoScale: logoScale,
		logger:    logger,
	}
}

// RenderToFile encodes payload into a QR image, overlays the logo when
// one is given and writes the PNG to the deterministic path for id.
// A broken logo is logged and skipped; it never fails the render.
func (r *FileRenderer) RenderToFile(id int64, payload, colorName string, logo *string) (string, error) {
	code, err := qrcode.New(payload, qrcode.High)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	fg, err := ParseColor(colorName)
	if err != nil {
		return "", err
	}
	code.ForegroundColor = fg

	img := code.Image(r.size)

	if logo != nil && *logo != "" {
		overlaid, err := r.overlayLogo(img, *logo)
		if err != nil {
			r.logger.Warn("Failed to overlay logo, rendering without it",
				zap.Int64("qrcode_id", id),
				zap.String("logo", *logo),
				zap.Error(err),
			)
		} else {
			img = overlaid
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := r.ImagePath(id)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return path, nil
}

func (r *FileRenderer) Remove(id int64) error {
	return os.Remove(r.ImagePath(id))
}

// ImagePath is deterministic per id so re-renders overwrite in place.
func (r *FileRenderer) ImagePath(id int64) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("qrcode_%d.png", id))
}

func (r *FileRenderer) PublicURL(id int64) string {
	return fmt.Sprintf("%s/static/qrcodes/qrcode_%d.png", strings.TrimRight(r.baseURL, "/"), id)
}

// overlayLogo centers the logo over the code image, downscaled so it
// covers at most logoScale of the shorter dimension.
func (r *FileRenderer) overlayLogo(img image.Image, logoPath string) (image.Image, error) {
	f, err := os.Open(logoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open logo: %w", err)
	}
	defer f.Close()

	logo, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	bounds := img.Bounds()
	shorter := bounds.Dx()
	if bounds.Dy() < shorter {
		shorter = bounds.Dy()
	}
	maxDim := int(float64(shorter) * r.logoScale)
	if maxDim < 1 {
		maxDim = 1
	}
	logo = scaleToFit(logo, maxDim)

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	lb := logo.Bounds()
	offset := image.Pt(
		bounds.Min.X+(bounds.Dx()-lb.Dx())/2,
		bounds.Min.Y+(bounds.Dy()-lb.Dy())/2,
	)
	draw.Draw(out, image.Rectangle{Min: offset, Max: offset.Add(lb.Size())}, logo, lb.Min, draw.Over)

	return out, nil
}

// scaleToFit shrinks src so its larger side is at most maxDim,
// preserving aspect ratio. Nearest neighbour is plenty for a small
// centered overlay. Images already small enough pass through.
func scaleToFit(src image.Image, maxDim int) image.Image {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := sb.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			sx := sb.Min.X + x*w/nw
			dst.Set(x, y, src.At(sx, sy))
		}
	}

	return dst
}

// ParseColor accepts "#RRGGBB" hex or a small set of named colors.
// An empty name means the default black foreground.
func ParseColor(name string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "black":
		return color.Black, nil
	case "red":
		return color.RGBA{R: 0xC0, A: 0xFF}, nil
	case "green":
		return color.RGBA{G: 0x80, A: 0xFF}, nil
	case "blue":
		return color.RGBA{B: 0xC0, A: 0xFF}, nil
	}

	s := strings.TrimSpace(name)
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: 0xFF,
			}, nil
		}
	}

	return nil, fmt.Errorf("unsupported color %q", name)
}
