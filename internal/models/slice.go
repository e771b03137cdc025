package models

import (
	"image"
)

// Slice represents a single micrograph slice of a scaffold stack
type Slice struct {
	// Image is the decoded slice image
	Image image.Image

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}
