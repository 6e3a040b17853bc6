// Package pipeline drives uploaded documents through decode, extract and
// persist, and isolates per-file failures in batch submissions.
package pipeline

import (
	"context"

	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

// Decoder turns an uploaded document into ordered page images.
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([]document.Image, error)
}

// Extractor reads typed records from page images.
type Extractor interface {
	ExtractAnswerKey(ctx context.Context, images []document.Image) ([]entity.AnswerKeyEntry, error)
	ExtractStudentDetail(ctx context.Context, images []document.Image) (entity.StudentDetail, error)
}
