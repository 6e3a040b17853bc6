package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

const defaultTimeout = 90 * time.Second

// Extractor turns page images into typed records through a Generator.
// Model output is never trusted: it is validated against the declared schema
// and decoded strictly, and any mismatch is an ExtractionError.
type Extractor struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger

	answerKeySchema map[string]any
	studentSchema   map[string]any
	answerKeyC      *jsonschema.Schema
	studentC        *jsonschema.Schema
}

// NewExtractor wires a Generator with a per-call timeout (<= 0 uses 90s).
func NewExtractor(gen Generator, timeout time.Duration, logger *slog.Logger) (*Extractor, error) {
	if gen == nil {
		return nil, errors.New("llm: generator is nil")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		gen:             gen,
		timeout:         timeout,
		logger:          logger,
		answerKeySchema: BuildAnswerKeyJSONSchema(),
		studentSchema:   BuildStudentDetailJSONSchema(),
	}
	var err error
	if e.answerKeyC, err = CompileSchema("answer_key.json", e.answerKeySchema); err != nil {
		return nil, err
	}
	if e.studentC, err = CompileSchema("student_detail.json", e.studentSchema); err != nil {
		return nil, err
	}
	return e, nil
}

// wire shapes: only the fields the model may produce
type answerKeyItem struct {
	QuestionNo         json.Number `json:"question_no"` // 1 and 1.0 are both schema integers
	QuestionText       string      `json:"question_text"`
	IdealAnswer        string      `json:"ideal_answer"`
	MaxMarkPerQuestion float64     `json:"max_mark_per_question"`
}

type studentDetailItem struct {
	Name    string `json:"name"`
	RollNo  string `json:"roll_no"`
	Class   string `json:"class"`
	Section string `json:"section"`
}

// ExtractAnswerKey transcribes an answer key. The returned entries carry no
// ExamID; association happens at persistence. An empty list is valid.
func (e *Extractor) ExtractAnswerKey(ctx context.Context, images []document.Image) ([]entity.AnswerKeyEntry, error) {
	var items []answerKeyItem
	if err := e.extract(ctx, "answer_key", images, AnswerKeyInstruction, e.answerKeySchema, e.answerKeyC, &items); err != nil {
		return nil, err
	}
	out := make([]entity.AnswerKeyEntry, 0, len(items))
	for i, it := range items {
		qno, err := questionNumber(it.QuestionNo)
		if err != nil {
			return nil, common.NewExtractionError(fmt.Sprintf("answer key item %d: question_no", i), err)
		}
		out = append(out, entity.AnswerKeyEntry{
			QuestionNo:         qno,
			QuestionText:       it.QuestionText,
			IdealAnswer:        it.IdealAnswer,
			MaxMarkPerQuestion: it.MaxMarkPerQuestion,
		})
	}
	return out, nil
}

// questionNumber converts a schema-validated integer, which may be written
// with a fractional part of zero.
func questionNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not a question number", n)
	}
	return int(f), nil
}

// ExtractStudentDetail reads the identity block of one answer script.
func (e *Extractor) ExtractStudentDetail(ctx context.Context, images []document.Image) (entity.StudentDetail, error) {
	var it studentDetailItem
	if err := e.extract(ctx, "student_detail", images, StudentDetailInstruction, e.studentSchema, e.studentC, &it); err != nil {
		return entity.StudentDetail{}, err
	}
	return entity.StudentDetail{
		Name:    it.Name,
		RollNo:  it.RollNo,
		Class:   it.Class,
		Section: it.Section,
	}, nil
}

func (e *Extractor) extract(
	ctx context.Context,
	kind string,
	images []document.Image,
	instruction string,
	schemaMap map[string]any,
	compiled *jsonschema.Schema,
	out any,
) error {
	callID := uuid.New().String()
	start := time.Now()

	if len(images) == 0 {
		return common.NewExtractionError("no page images to extract from", nil)
	}

	e.logger.Info("llm.extract.start",
		"call_id", callID,
		"request_id", common.RequestIDFromContext(ctx),
		"user_id", common.UserIDFromContext(ctx),
		"kind", kind,
		"pages", len(images),
		"timeout_ms", e.timeout.Milliseconds(),
	)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.gen.Generate(callCtx, GenerateRequest{
		Images:      images,
		Instruction: instruction,
		Schema:      schemaMap,
	})
	if err == nil && callCtx.Err() != nil {
		// a generator that ignored the deadline still counts as timed out
		err = callCtx.Err()
	}
	if err != nil {
		msg := "model call failed"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("model call timed out after %s", e.timeout)
		}
		e.logger.Error("llm.extract.call_error",
			"call_id", callID, "kind", kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return common.NewExtractionError(msg, err)
	}

	content := StripCodeFences(string(raw))
	if content == "" {
		e.logger.Error("llm.extract.empty_response", "call_id", callID, "kind", kind)
		return common.NewExtractionError("model returned an empty response", nil)
	}

	if err := validateAgainst(compiled, []byte(content)); err != nil {
		e.logger.Error("llm.extract.schema_validation_failed",
			"call_id", callID, "kind", kind, "error", err,
			"content", common.Truncate(content, 2048),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return common.NewExtractionError("model response does not match the "+kind+" schema", err)
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		e.logger.Error("llm.extract.unmarshal_failed",
			"call_id", callID, "kind", kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return common.NewExtractionError("decode model response", err)
	}

	e.logger.Info("llm.extract.ok",
		"call_id", callID,
		"kind", kind,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
