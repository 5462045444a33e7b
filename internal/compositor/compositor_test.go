package compositor

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard-server/internal/model"
)

func pngDataURI(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImageCache(t *testing.T) {
	t.Run("decodes and memoizes", func(t *testing.T) {
		cache := NewImageCache()
		uri := pngDataURI(t, 4, 4, color.RGBA{R: 255, A: 255})

		img1, err := cache.Get(uri)
		require.NoError(t, err)
		assert.Equal(t, 4, img1.Bounds().Dx())
		assert.Equal(t, 1, cache.Len())

		img2, err := cache.Get(uri)
		require.NoError(t, err)
		assert.Same(t, img1, img2)
	})

	t.Run("evicts single entries", func(t *testing.T) {
		cache := NewImageCache()
		uri1 := pngDataURI(t, 2, 2, color.RGBA{R: 255, A: 255})
		uri2 := pngDataURI(t, 3, 3, color.RGBA{G: 255, A: 255})

		_, err := cache.Get(uri1)
		require.NoError(t, err)
		_, err = cache.Get(uri2)
		require.NoError(t, err)

		cache.Evict(uri1)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("rejects junk", func(t *testing.T) {
		cache := NewImageCache()
		_, err := cache.Get("not a data uri")
		assert.Error(t, err)
		_, err = cache.Get("data:image/png;base64,!!!")
		assert.Error(t, err)
		assert.Equal(t, 0, cache.Len())
	})
}

func TestRender(t *testing.T) {
	comp, err := New()
	require.NoError(t, err)

	board := &model.Storyboard{
		Title: "Test",
		Scenes: []model.Scene{
			{ID: 1, Narration: "A dragon wakes up in its cave.", ImagePrompt: "p", Duration: 3},
			{ID: 2, Narration: "The dragon flies away.", ImagePrompt: "p", Duration: 3,
				ImageURL: pngDataURI(t, 64, 48, color.RGBA{B: 255, A: 255})},
		},
	}

	t.Run("renders the canvas at full size", func(t *testing.T) {
		img, err := comp.Render(board, 0)
		require.NoError(t, err)
		assert.Equal(t, CanvasSize, img.Bounds().Dx())
		assert.Equal(t, CanvasSize, img.Bounds().Dy())
	})

	t.Run("paints the paper background", func(t *testing.T) {
		img, err := comp.Render(board, 0)
		require.NoError(t, err)
		r, g, b, _ := img.At(0, 0).RGBA()
		// #FFF8E7
		assert.Equal(t, uint32(0xFF), r>>8)
		assert.Equal(t, uint32(0xF8), g>>8)
		assert.Equal(t, uint32(0xE7), b>>8)
	})

	t.Run("draws the scene image when present", func(t *testing.T) {
		img, err := comp.Render(board, 1)
		require.NoError(t, err)
		// center of the picture area should be dominated by the blue image
		_, _, b, _ := img.At(CanvasSize/2, 300).RGBA()
		assert.Greater(t, b>>8, uint32(0xC0))
		assert.Equal(t, 1, comp.Cache().Len())
	})

	t.Run("renders safely from concurrent callers", func(t *testing.T) {
		// preview requests and an export loop share one Compositor
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					if _, err := comp.Render(board, i%len(board.Scenes)); err != nil {
						errs[g] = err
						return
					}
				}
			}(g)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("rejects out-of-range indices", func(t *testing.T) {
		_, err := comp.Render(board, 2)
		assert.ErrorIs(t, err, model.ErrInvalidIndex)
		_, err = comp.Render(board, -1)
		assert.ErrorIs(t, err, model.ErrInvalidIndex)
	})

	t.Run("fails on an undecodable scene image", func(t *testing.T) {
		broken := &model.Storyboard{Title: "T", Scenes: []model.Scene{
			{ID: 1, Narration: "n", ImagePrompt: "p", ImageURL: "data:image/png;base64,AAAA", Duration: 3},
		}}
		_, err := comp.Render(broken, 0)
		assert.Error(t, err)
	})
}
