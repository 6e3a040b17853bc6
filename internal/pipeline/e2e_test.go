package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
	"github.com/joseph-ayodele/exam-grader/internal/repository"
)

// twoPageRasterizer stands in for pdftoppm and renders two pages.
type twoPageRasterizer struct{ t *testing.T }

func (r twoPageRasterizer) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	prefix := args[len(args)-1]
	for i := 1; i <= 2; i++ {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10*i, 10))); err != nil {
			r.t.Fatal(err)
		}
		if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), buf.Bytes(), 0o600); err != nil {
			r.t.Fatal(err)
		}
	}
	return nil, nil, nil
}

func TestUploadAnswerKeyEndToEnd(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "e2e.db") + "?_pragma=foreign_keys(1)"
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: dsn}, quietLogger())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.SQL().ExecContext(ctx,
		`INSERT INTO exams (exam_id, user_id, exam_name, subject, max_marks, exam_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"E1", "user-1", "Unit test", "Biology", 10.0, "2025-01-20", time.Now().UTC(),
	); err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	answerKeys := repository.NewAnswerKeyRepository(db, quietLogger())
	students := repository.NewStudentRepository(db, quietLogger())
	decoder := document.NewDecoder(document.Config{TempDir: t.TempDir()}, quietLogger(), document.WithRunner(twoPageRasterizer{t: t}))
	extractor := &fakeExtractor{answerKey: []entity.AnswerKeyEntry{
		{ExamID: "wrong", QuestionNo: 1, QuestionText: "Name the powerhouse of the cell.", IdealAnswer: "Mitochondria", MaxMarkPerQuestion: 5},
		{QuestionNo: 2, QuestionText: "What does DNA stand for?", IdealAnswer: "Deoxyribonucleic acid", MaxMarkPerQuestion: 5},
	}}
	svc := NewService(decoder, extractor, NewPersister(answerKeys, students, quietLogger()), quietLogger())

	res, err := svc.UploadAnswerKey(ctx, "E1", Upload{Filename: "key.pdf", Data: []byte("%PDF-1.5\n...")})
	if err != nil {
		t.Fatalf("UploadAnswerKey: %v", err)
	}
	if res.ExamID != "E1" {
		t.Errorf("echoed exam id = %q", res.ExamID)
	}
	if extractor.lastPages != 2 {
		t.Errorf("extractor saw %d pages, want 2", extractor.lastPages)
	}

	rows, err := answerKeys.ListByExam(ctx, "E1")
	if err != nil {
		t.Fatalf("ListByExam: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d answer_keys rows, want 2", len(rows))
	}
	seen := map[int]bool{}
	for _, r := range rows {
		if r.ExamID != "E1" {
			t.Errorf("row %s exam_id = %q, want E1", r.ID, r.ExamID)
		}
		seen[r.QuestionNo] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("question numbers = %v, want 1 and 2", seen)
	}
	if other, _ := answerKeys.ListByExam(ctx, "wrong"); len(other) != 0 {
		t.Errorf("model-supplied exam id was persisted: %+v", other)
	}
}
