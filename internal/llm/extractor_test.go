package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

type fakeGenerator struct {
	resp  string
	err   error
	block bool // wait for ctx cancellation
	calls []GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	f.calls = append(f.calls, req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.resp), nil
}

func testImages(n int) []document.Image {
	out := make([]document.Image, n)
	for i := range out {
		out[i] = document.Image{Page: i + 1, Format: constants.PNG, Data: []byte{byte(i)}, Width: 1, Height: 1}
	}
	return out
}

func newTestExtractor(t *testing.T, gen Generator, timeout time.Duration) *Extractor {
	t.Helper()
	e, err := NewExtractor(gen, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestExtractAnswerKeyConforming(t *testing.T) {
	gen := &fakeGenerator{resp: "```json\n" + `[
		{"question_no": 1, "question_text": "Define osmosis.", "ideal_answer": "Movement of water across a membrane.", "max_mark_per_question": 2},
		{"question_no": 2, "question_text": "State Ohm's law.", "ideal_answer": "V = IR", "max_mark_per_question": 3.5}
	]` + "\n```"}
	e := newTestExtractor(t, gen, time.Second)

	got, err := e.ExtractAnswerKey(context.Background(), testImages(2))
	if err != nil {
		t.Fatalf("ExtractAnswerKey: %v", err)
	}
	want := []entity.AnswerKeyEntry{
		{QuestionNo: 1, QuestionText: "Define osmosis.", IdealAnswer: "Movement of water across a membrane.", MaxMarkPerQuestion: 2},
		{QuestionNo: 2, QuestionText: "State Ohm's law.", IdealAnswer: "V = IR", MaxMarkPerQuestion: 3.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(gen.calls))
	}
	call := gen.calls[0]
	if call.Instruction != AnswerKeyInstruction {
		t.Errorf("answer key call used instruction %q", call.Instruction)
	}
	if diff := cmp.Diff(BuildAnswerKeyJSONSchema(), call.Schema); diff != "" {
		t.Errorf("schema sent to model (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, []int{call.Images[0].Page, call.Images[1].Page}); diff != "" {
		t.Errorf("image order (-want +got):\n%s", diff)
	}
}

func TestExtractAnswerKeyIntegerForms(t *testing.T) {
	tests := []struct {
		name string
		qno  string
		want int
	}{
		{name: "zero fraction", qno: "1.0", want: 1},
		{name: "exponent", qno: "3e0", want: 3},
		{name: "largest allowed", qno: "2147483647", want: 2147483647},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{resp: `[{"question_no": ` + tt.qno + `, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": 1}]`}
			got, err := newTestExtractor(t, gen, time.Second).ExtractAnswerKey(context.Background(), testImages(1))
			if err != nil {
				t.Fatalf("ExtractAnswerKey: %v", err)
			}
			want := []entity.AnswerKeyEntry{{QuestionNo: tt.want, QuestionText: "a", IdealAnswer: "b", MaxMarkPerQuestion: 1}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("entries (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractAnswerKeyEmptyList(t *testing.T) {
	e := newTestExtractor(t, &fakeGenerator{resp: "[]"}, time.Second)
	got, err := e.ExtractAnswerKey(context.Background(), testImages(1))
	if err != nil {
		t.Fatalf("ExtractAnswerKey: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestExtractStudentDetailConforming(t *testing.T) {
	gen := &fakeGenerator{resp: `{"name": "Asha Rao", "roll_no": "17", "class": "10", "section": "B"}`}
	e := newTestExtractor(t, gen, time.Second)

	got, err := e.ExtractStudentDetail(context.Background(), testImages(3))
	if err != nil {
		t.Fatalf("ExtractStudentDetail: %v", err)
	}
	want := entity.StudentDetail{Name: "Asha Rao", RollNo: "17", Class: "10", Section: "B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("detail (-want +got):\n%s", diff)
	}
	if gen.calls[0].Instruction != StudentDetailInstruction {
		t.Errorf("student call used instruction %q", gen.calls[0].Instruction)
	}
}

func TestExtractNonConforming(t *testing.T) {
	tests := []struct {
		name    string
		student bool
		resp    string
	}{
		{name: "not json", resp: "Sure! Here is the answer key: question 1..."},
		{name: "empty", resp: "   "},
		{name: "object instead of list", resp: `{"question_no": 1, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": 1}`},
		{name: "missing field", resp: `[{"question_no": 1, "question_text": "a", "ideal_answer": "b"}]`},
		{name: "mark as string", resp: `[{"question_no": 1, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": "2"}]`},
		{name: "fractional question number", resp: `[{"question_no": 1.5, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": 1}]`},
		{name: "question number out of range", resp: `[{"question_no": 99999999999999999999, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": 1}]`},
		{name: "model invents exam_id", resp: `[{"exam_id": "E9", "question_no": 1, "question_text": "a", "ideal_answer": "b", "max_mark_per_question": 1}]`},
		{name: "trailing garbage", resp: `[] []`},
		{name: "student list instead of object", student: true, resp: `[{"name": "a", "roll_no": "1", "class": "c", "section": "s"}]`},
		{name: "student missing roll", student: true, resp: `{"name": "a", "class": "c", "section": "s"}`},
		{name: "student invents user_id", student: true, resp: `{"name": "a", "roll_no": "1", "class": "c", "section": "s", "user_id": "u1"}`},
		{name: "student null field", student: true, resp: `{"name": null, "roll_no": "1", "class": "c", "section": "s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(t, &fakeGenerator{resp: tt.resp}, time.Second)
			var err error
			if tt.student {
				_, err = e.ExtractStudentDetail(context.Background(), testImages(1))
			} else {
				var got []entity.AnswerKeyEntry
				got, err = e.ExtractAnswerKey(context.Background(), testImages(1))
				if got != nil {
					t.Errorf("got entries %v on failure", got)
				}
			}
			if !errors.Is(err, common.ErrExtraction) {
				t.Fatalf("err = %v, want ExtractionError", err)
			}
			if stage := common.StageOf(err); stage != constants.StageExtract {
				t.Errorf("stage = %q", stage)
			}
		})
	}
}

func TestExtractGeneratorFailure(t *testing.T) {
	boom := errors.New("rpc error: code = Unavailable")
	e := newTestExtractor(t, &fakeGenerator{err: boom}, time.Second)

	_, err := e.ExtractStudentDetail(context.Background(), testImages(1))
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	e := newTestExtractor(t, &fakeGenerator{block: true}, 20*time.Millisecond)

	start := time.Now()
	_, err := e.ExtractAnswerKey(context.Background(), testImages(1))
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want deadline cause, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestExtractNoImages(t *testing.T) {
	gen := &fakeGenerator{resp: "[]"}
	e := newTestExtractor(t, gen, time.Second)
	_, err := e.ExtractAnswerKey(context.Background(), nil)
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("model called %d times without images", len(gen.calls))
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n[]\n```":     "[]",
		"  {\"a\":1}  ":    `{"a":1}`,
		"":                 "",
	}
	for in, want := range tests {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
