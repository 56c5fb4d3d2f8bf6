package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of decoded images an ImageCache keeps by default.
const DefaultCacheSize = 256

// ImageCache provides thread-safe, bounded caching of decoded images.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an
// image is loaded, subsequent Load() calls for the same path return the cached
// copy without disk I/O until the entry is evicted as least recently used.
//
// ImageCache is safe for concurrent use by multiple goroutines. Two goroutines
// that miss on the same path at the same time may both decode it; the last
// decoded copy wins and both callers receive equivalent images.
//
// # Memory Management
//
// At most Size() images are retained. Training on a large learning set touches
// each image once per fold, so a capacity at least as large as the learning
// set avoids repeated decoding during a grid search.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(512)
//	img, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/image.png") // Optional: free memory
type ImageCache struct {
	size   int
	images *lru.Cache
}

// NewImageCache creates an empty cache holding at most size images.
// A non-positive size uses DefaultCacheSize.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New(size)
	if err != nil {
		// lru.New only fails for non-positive sizes
		panic(err)
	}
	return &ImageCache{size: size, images: images}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, and GIF.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.images.Get(path); ok {
		return img.(image.Image), nil
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	c.images.Add(path, img)
	return img, nil
}

// Contains reports whether path is currently cached.
func (c *ImageCache) Contains(path string) bool {
	return c.images.Contains(path)
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}

// Size returns the cache capacity.
func (c *ImageCache) Size() int {
	return c.size
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.images.Purge()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.images.Remove(path)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	// Alpha-cropped annotations carry the polygon mask in this channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch filepath.Ext(path) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
