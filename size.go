package tiffio

import "fmt"

// Size is the pixel extent of an image.
type Size struct {
	Width  uint32
	Height uint32
}

// String implements Stringer.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
