package llm

import (
	"context"

	"github.com/joseph-ayodele/exam-grader/internal/document"
)

// GenerateRequest is one multimodal model call: the page images in reading
// order, the task instruction, and the JSON schema the output must satisfy.
type GenerateRequest struct {
	Images      []document.Image
	Instruction string
	Schema      map[string]any
}

// Generator is the external generative model. It returns the raw response
// text, which callers treat as untrusted until validated.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}
