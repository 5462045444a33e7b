package compositor

import (
	"fmt"
	"image"
	"math/rand"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"storyboard-server/internal/model"
)

// Canvas layout. The frame is square: picture area on top, caption bar
// at the bottom, scene counter floating above the bar.
const (
	CanvasSize = 1080

	imageMargin      = 40
	imageMaxHeight   = CanvasSize - 140
	captionBarHeight = 80
	captionWrapWidth = CanvasSize - 60
	captionLineHght  = 26

	captionFontSize     = 20
	counterFontSize     = 16
	placeholderFontSize = 24

	// hand-drawn feel: up to ±0.01 rad of tilt per frame
	maxTiltRad = 0.01
)

const placeholderText = "Bild wird geladen..."

// Compositor draws one storyboard scene onto a paper-styled canvas.
// A font.Face carries mutable rasterizer state, so renders sharing the
// faces must not overlap.
type Compositor struct {
	cache *ImageCache

	mu              sync.Mutex
	captionFace     font.Face
	counterFace     font.Face
	placeholderFace font.Face
}

// New parses the embedded fonts and prepares the compositor.
func New() (*Compositor, error) {
	boldFont, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	regularFont, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}

	captionFace, err := opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size: captionFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building caption face: %w", err)
	}
	counterFace, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size: counterFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building counter face: %w", err)
	}
	placeholderFace, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size: placeholderFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building placeholder face: %w", err)
	}

	return &Compositor{
		cache:           NewImageCache(),
		captionFace:     captionFace,
		counterFace:     counterFace,
		placeholderFace: placeholderFace,
	}, nil
}

// Cache exposes the decoded-image cache for eviction on image replacement.
func (c *Compositor) Cache() *ImageCache {
	return c.cache
}

// Render draws the scene at index onto a fresh canvas and returns it.
func (c *Compositor) Render(board *model.Storyboard, index int) (image.Image, error) {
	if index < 0 || index >= len(board.Scenes) {
		return nil, model.ErrInvalidIndex
	}
	scene := board.Scenes[index]

	c.mu.Lock()
	defer c.mu.Unlock()

	dc := gg.NewContext(CanvasSize, CanvasSize)

	c.drawPaper(dc)

	if scene.HasImage() {
		img, err := c.cache.Get(scene.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("scene %d image: %w", scene.ID, err)
		}
		c.drawSceneImage(dc, img)
	} else {
		c.drawPlaceholder(dc)
	}

	c.drawCaptionBar(dc, scene.Narration)
	c.drawCounter(dc, index+1, len(board.Scenes))

	return dc.Image(), nil
}

// drawPaper fills the warm paper background and rules the writing lines.
func (c *Compositor) drawPaper(dc *gg.Context) {
	dc.SetHexColor("#FFF8E7")
	dc.Clear()

	dc.SetHexColor("#E8DCC8")
	dc.SetLineWidth(1)
	for y := 32; y < CanvasSize-captionBarHeight; y += 32 {
		dc.DrawLine(0, float64(y), CanvasSize, float64(y))
		dc.Stroke()
	}
}

// drawSceneImage fits the image into the picture area, tilts it slightly
// and decorates it with a drop shadow and two tape strips.
func (c *Compositor) drawSceneImage(dc *gg.Context, img image.Image) {
	bounds := img.Bounds()
	maxW := float64(CanvasSize - imageMargin*2)
	maxH := float64(imageMaxHeight)
	scale := maxW / float64(bounds.Dx())
	if s := maxH / float64(bounds.Dy()); s < scale {
		scale = s
	}
	w := float64(bounds.Dx()) * scale
	h := float64(bounds.Dy()) * scale
	x := (CanvasSize - w) / 2
	y := float64(imageMargin)

	scaled := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)

	tilt := (rand.Float64() - 0.5) * 2 * maxTiltRad

	dc.Push()
	dc.RotateAbout(tilt, x+w/2, y+h/2)

	// soft shadow under the sheet
	dc.SetRGBA(0, 0, 0, 0.15)
	dc.DrawRectangle(x+4, y+4, w, h)
	dc.Fill()

	dc.DrawImage(scaled, int(x), int(y))

	// tape strips on the top corners
	dc.SetRGBA(1, 235.0/255.0, 180.0/255.0, 0.7)
	dc.DrawRectangle(x-5, y-5, 40, 20)
	dc.Fill()
	dc.DrawRectangle(x+w-35, y-5, 40, 20)
	dc.Fill()

	dc.Pop()
}

func (c *Compositor) drawPlaceholder(dc *gg.Context) {
	dc.SetHexColor("#EEEEEE")
	dc.DrawRectangle(imageMargin, imageMargin, CanvasSize-imageMargin*2, CanvasSize-160)
	dc.Fill()

	dc.SetFontFace(c.placeholderFace)
	dc.SetHexColor("#999999")
	dc.DrawStringAnchored(placeholderText, CanvasSize/2, CanvasSize/2, 0.5, 0.5)
}

func (c *Compositor) drawCaptionBar(dc *gg.Context, narration string) {
	barTop := float64(CanvasSize - captionBarHeight)

	dc.SetRGBA(1, 1, 1, 0.9)
	dc.DrawRectangle(0, barTop, CanvasSize, captionBarHeight)
	dc.Fill()

	dc.SetHexColor("#333333")
	dc.SetLineWidth(2)
	dc.DrawLine(0, barTop, CanvasSize, barTop)
	dc.Stroke()

	dc.SetFontFace(c.captionFace)
	lines := WrapNarration(dc, narration, captionWrapWidth)

	startY := barTop + (captionBarHeight-float64(len(lines))*captionLineHght)/2
	for i, line := range lines {
		y := startY + float64(i)*captionLineHght + captionLineHght/2
		dc.DrawStringAnchored(line, CanvasSize/2, y, 0.5, 0.5)
	}
}

func (c *Compositor) drawCounter(dc *gg.Context, current, total int) {
	dc.SetFontFace(c.counterFace)
	dc.SetRGBA(0, 0, 0, 0.4)
	counter := fmt.Sprintf("%d / %d", current, total)
	dc.DrawStringAnchored(counter, CanvasSize-15, CanvasSize-85, 1, 0.5)
}
