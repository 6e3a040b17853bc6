package llm

import "math"

// BuildAnswerKeyJSONSchema returns the JSON-Schema (draft 2020-12 subset) for a
// transcribed answer key: a list of questions. The same map constrains the
// model and validates its output locally. exam_id is deliberately absent.
func BuildAnswerKeyJSONSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": answerKeyItemSchema(),
	}
}

func answerKeyItemSchema() map[string]any {
	props := map[string]any{
		"question_no":           map[string]any{"type": "integer", "minimum": 0, "maximum": math.MaxInt32},
		"question_text":         map[string]any{"type": "string"},
		"ideal_answer":          map[string]any{"type": "string"},
		"max_mark_per_question": map[string]any{"type": "number", "minimum": 0},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"question_no", "question_text", "ideal_answer", "max_mark_per_question"},
	}
}

// BuildStudentDetailJSONSchema returns the schema for the identity block of a
// single answer script. user_id and exam_id are deliberately absent.
func BuildStudentDetailJSONSchema() map[string]any {
	props := map[string]any{
		"name":    map[string]any{"type": "string"},
		"roll_no": map[string]any{"type": "string"},
		"class":   map[string]any{"type": "string"},
		"section": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"name", "roll_no", "class", "section"},
	}
}
