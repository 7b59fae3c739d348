package pdfmark

import (
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/images"
)

// Annotation is a mark placed on one page.
type Annotation = annotations.Annotation

// Font is an alias for fonts.Font.
type Font = fonts.Font

// Image is an alias for images.Image.
type Image = images.Image

// Result describes a written document.
type Result struct {
	// Pages lists the pages that received marks, in ascending order.
	Pages []int

	// Marks is the number of marks drawn.
	Marks int

	// Skipped holds the ids of marks whose page is outside the document. They
	// are left out without failing the write.
	Skipped []string

	// Warnings collects non-fatal problems, such as an unknown font family that
	// was replaced by Helvetica.
	Warnings []string

	// Size is the length of the written document in bytes.
	Size int
}
