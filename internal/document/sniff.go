package document

import (
	"bytes"

	"github.com/joseph-ayodele/exam-grader/constants"
)

var (
	magicPDF  = []byte("%PDF-")
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG = []byte{0xFF, 0xD8}
)

// Sniff detects the container format from magic bytes. It returns "" when
// the payload is none of the supported formats.
func Sniff(b []byte) constants.Format {
	switch {
	case bytes.HasPrefix(b, magicPDF):
		return constants.PDF
	case bytes.HasPrefix(b, magicPNG):
		return constants.PNG
	case bytes.HasPrefix(b, magicJPEG):
		return constants.JPEG
	}
	// some scanners prepend garbage before the PDF header; readers accept
	// the header anywhere in the first 1024 bytes
	head := b
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, magicPDF) {
		return constants.PDF
	}
	return ""
}
