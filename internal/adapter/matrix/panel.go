// Package matrix rasterises frames for a 64x32 RGB LED panel. The latest
// image is kept in memory for the HTTP preview and can be mirrored to a PNG
// file for panel drivers that read from disk.
package matrix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/weather-matrix/internal/domain"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoFrame is returned by accessors before the first frame is shown.
var ErrNoFrame = errors.New("no frame shown yet")

// Panel is an in-memory LED panel. It implements render.Display.
type Panel struct {
	pngPath string
	logger  *slog.Logger

	mu    sync.RWMutex
	img   *image.RGBA
	frame domain.Frame
}

// NewPanel creates a panel. When pngPath is non-empty every shown frame is
// also written there as a PNG.
func NewPanel(pngPath string, logger *slog.Logger) *Panel {
	return &Panel{pngPath: pngPath, logger: logger}
}

// Show rasterises the frame and makes it the current image.
func (p *Panel) Show(_ context.Context, frame domain.Frame) error {
	img := Rasterize(frame)

	p.mu.Lock()
	p.img = img
	p.frame = frame
	p.mu.Unlock()

	if p.pngPath == "" {
		return nil
	}
	if err := writePNGFile(p.pngPath, img); err != nil {
		return fmt.Errorf("write frame png: %w", err)
	}
	return nil
}

// Image returns a copy of the current image.
func (p *Panel) Image() (*image.RGBA, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.img == nil {
		return nil, ErrNoFrame
	}
	cp := image.NewRGBA(p.img.Rect)
	copy(cp.Pix, p.img.Pix)
	return cp, nil
}

// PNG encodes the current image.
func (p *Panel) PNG() ([]byte, error) {
	img, err := p.Image()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Frame returns the frame behind the current image.
func (p *Panel) Frame() (domain.Frame, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.img == nil {
		return domain.Frame{}, ErrNoFrame
	}
	return p.frame, nil
}

// Rasterize draws a frame onto a black panel-sized image.
func Rasterize(frame domain.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, domain.PanelWidth, domain.PanelHeight))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	for _, g := range []*domain.Graph{frame.TempGraph, frame.RainGraph} {
		if g != nil {
			drawGraph(img, g)
		}
	}
	for _, l := range frame.Labels {
		drawLabel(img, l)
	}
	return img
}

func drawGraph(img *image.RGBA, g *domain.Graph) {
	for _, s := range g.Segments {
		c := s.Color.RGBA()
		top, bottom := min(s.Top, s.Bottom), max(s.Top, s.Bottom)
		x := g.X + s.Column
		for y := top; y <= bottom; y++ {
			pt := image.Pt(x, g.Y+y)
			if pt.In(img.Rect) {
				img.SetRGBA(pt.X, pt.Y, c)
			}
		}
	}
}

func faceFor(f domain.Font) font.Face {
	if f == domain.FontThumb {
		return thumbFace
	}
	return basicfont.Face7x13
}

// drawLabel anchors the text at its left edge, vertically centred on Y.
func drawLabel(img *image.RGBA, l domain.Label) {
	face := faceFor(l.Font)
	m := face.Metrics()
	baseline := l.Y + (m.Ascent.Round()-m.Descent.Round())/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(l.Color.RGBA()),
		Face: face,
		Dot:  fixed.P(l.X, baseline),
	}
	d.DrawString(l.Text)
}

// writePNGFile replaces path atomically so readers never see a partial image.
func writePNGFile(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close() //nolint:errcheck,gosec // encode error takes precedence
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
