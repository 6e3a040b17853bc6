package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDecoder yields one page whose bytes are the upload itself, so the
// extractor fake can tell files apart. Payloads starting with "corrupt" fail.
type fakeDecoder struct {
	calls int
}

func (d *fakeDecoder) Decode(_ context.Context, data []byte) ([]document.Image, error) {
	d.calls++
	if strings.HasPrefix(string(data), "corrupt") {
		return nil, common.NewDecodeError("unsupported document format", nil)
	}
	return []document.Image{{Page: 1, Format: constants.PNG, Data: data, Width: 1, Height: 1}}, nil
}

// fakeExtractor answers from a table keyed by page content.
type fakeExtractor struct {
	answerKey []entity.AnswerKeyEntry
	students  map[string]entity.StudentDetail
	akCalls   int
	sdCalls   int
	lastPages int
}

var errModelGarbage = errors.New("model returned prose")

func (e *fakeExtractor) ExtractAnswerKey(_ context.Context, images []document.Image) ([]entity.AnswerKeyEntry, error) {
	e.akCalls++
	e.lastPages = len(images)
	return e.answerKey, nil
}

func (e *fakeExtractor) ExtractStudentDetail(_ context.Context, images []document.Image) (entity.StudentDetail, error) {
	e.sdCalls++
	key := string(images[0].Data)
	d, ok := e.students[key]
	if !ok {
		return entity.StudentDetail{}, common.NewExtractionError("model response does not match the student_detail schema", errModelGarbage)
	}
	return d, nil
}

// memAnswerKeys fails the failAt-th insert (1-based) when failAt > 0.
type memAnswerKeys struct {
	rows   []entity.AnswerKeyEntry
	failAt int
	calls  int
}

func (m *memAnswerKeys) Create(_ context.Context, e entity.AnswerKeyEntry) (*entity.AnswerKeyEntry, error) {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return nil, errors.New("connection reset by peer")
	}
	e.ID = fmt.Sprintf("ak-%d", m.calls)
	m.rows = append(m.rows, e)
	return &e, nil
}

func (m *memAnswerKeys) ListByExam(_ context.Context, examID string) ([]entity.AnswerKeyEntry, error) {
	var out []entity.AnswerKeyEntry
	for _, r := range m.rows {
		if r.ExamID == examID {
			out = append(out, r)
		}
	}
	return out, nil
}

// memStudents fails inserts for the named student.
type memStudents struct {
	rows     []entity.StudentDetail
	failName string
	calls    int
}

func (m *memStudents) Create(_ context.Context, s entity.StudentDetail) (*entity.StudentDetail, error) {
	m.calls++
	if m.failName != "" && s.Name == m.failName {
		return nil, errors.New("duplicate key value violates unique constraint")
	}
	s.ID = fmt.Sprintf("st-%d", m.calls)
	m.rows = append(m.rows, s)
	return &s, nil
}

func (m *memStudents) ListByExam(_ context.Context, examID string) ([]entity.StudentDetail, error) {
	var out []entity.StudentDetail
	for _, r := range m.rows {
		if r.ExamID == examID {
			out = append(out, r)
		}
	}
	return out, nil
}

type failingExtractor struct{}

func (failingExtractor) ExtractAnswerKey(context.Context, []document.Image) ([]entity.AnswerKeyEntry, error) {
	return nil, common.NewExtractionError("model call timed out after 90s", context.DeadlineExceeded)
}

func (failingExtractor) ExtractStudentDetail(context.Context, []document.Image) (entity.StudentDetail, error) {
	return entity.StudentDetail{}, common.NewExtractionError("model call failed", errModelGarbage)
}
