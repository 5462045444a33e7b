package compositor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
)

// ImageCache memoizes decoded scene images keyed by their data URI.
// Scene images are base64 PNGs around a megapixel each; decoding them
// once per scene instead of once per frame keeps export cheap.
type ImageCache struct {
	mu      sync.Mutex
	entries map[string]image.Image
}

func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]image.Image)}
}

// Get returns the decoded image for the data URI, decoding on a miss.
func (c *ImageCache) Get(dataURI string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.entries[dataURI]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := decodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[dataURI] = img
	c.mu.Unlock()

	return img, nil
}

// Evict drops a single entry, e.g. after a scene image was replaced.
func (c *ImageCache) Evict(dataURI string) {
	c.mu.Lock()
	delete(c.entries, dataURI)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func decodeDataURI(dataURI string) (image.Image, error) {
	_, encoded, ok := strings.Cut(dataURI, "base64,")
	if !ok {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding image base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}
