// Package imaging provides the image operations behind subwindow extraction
// and region tiling.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For windows, the offset is inclusive (top-left) and offset+size is
//     exclusive (bottom-right)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images. WriteTile
// may be called concurrently for the same path.
//
// # Feature Vectors
//
// Features flattens a window into the per-pixel values used by the classifier:
//   - RGB: components in [0,1]
//   - TRGB: standardized RGB
//   - HSV: hue, saturation and value in [0,1]
//   - GRAY: luminance in [0,1]
//
// # Performance Considerations
//
// Learning images are read once per fold. Size the ImageCache to the learning
// set to avoid redundant disk reads, and use Evict() or Clear() to manage
// memory in long-running processes.
package imaging
