package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

type stubExams struct{ exam entity.Exam }

func (s stubExams) Create(context.Context, string, entity.NewExam) (*entity.Exam, error) {
	return nil, errors.New("not used")
}

func (s stubExams) GetForOwner(_ context.Context, examID, userID string) (*entity.Exam, error) {
	if examID != s.exam.ID || userID != s.exam.UserID {
		return nil, common.NewNotFoundError("exam not found")
	}
	e := s.exam
	return &e, nil
}

func (s stubExams) ListByOwner(context.Context, string) ([]entity.Exam, error) { return nil, nil }

type stubAnswerKeys struct{ rows []entity.AnswerKeyEntry }

func (s stubAnswerKeys) Create(context.Context, entity.AnswerKeyEntry) (*entity.AnswerKeyEntry, error) {
	return nil, errors.New("not used")
}

func (s stubAnswerKeys) ListByExam(context.Context, string) ([]entity.AnswerKeyEntry, error) {
	return s.rows, nil
}

type stubStudents struct{ rows []entity.StudentDetail }

func (s stubStudents) Create(context.Context, entity.StudentDetail) (*entity.StudentDetail, error) {
	return nil, errors.New("not used")
}

func (s stubStudents) ListByExam(context.Context, string) ([]entity.StudentDetail, error) {
	return s.rows, nil
}

func newTestService() *Service {
	exam := entity.Exam{ID: "E1", UserID: "u1", Name: "Mid-term: Physics", Subject: "Physics", MaxMarks: 7, ExamDate: "2025-03-14"}
	return NewService(
		stubExams{exam: exam},
		stubAnswerKeys{rows: []entity.AnswerKeyEntry{
			{ExamID: "E1", QuestionNo: 1, QuestionText: "State Newton's first law.", IdealAnswer: "Inertia", MaxMarkPerQuestion: 3},
			{ExamID: "E1", QuestionNo: 2, QuestionText: "Define work.", IdealAnswer: "W = F.d", MaxMarkPerQuestion: 4},
		}},
		stubStudents{rows: []entity.StudentDetail{
			{Name: "Asha Rao", RollNo: "17", Class: "10", Section: "B"},
		}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestExportExamXLSX(t *testing.T) {
	b, name, err := newTestService().ExportExamXLSX(context.Background(), "u1", "E1")
	if err != nil {
		t.Fatalf("ExportExamXLSX: %v", err)
	}
	if name != "Mid-term_Physics_2025-03-14.xlsx" {
		t.Errorf("filename = %q", name)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{SheetAnswerKey, SheetStudents}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets (-want +got):\n%s", diff)
	}

	keyRows, err := f.GetRows(SheetAnswerKey)
	if err != nil {
		t.Fatal(err)
	}
	wantKey := [][]string{
		{"Question No", "Question", "Ideal Answer", "Max Marks"},
		{"1", "State Newton's first law.", "Inertia", "3"},
		{"2", "Define work.", "W = F.d", "4"},
		{"", "", "Total", "7"},
	}
	if diff := cmp.Diff(wantKey, keyRows[2:]); diff != "" {
		t.Errorf("answer key rows (-want +got):\n%s", diff)
	}

	studentRows, err := f.GetRows(SheetStudents)
	if err != nil {
		t.Fatal(err)
	}
	wantStudents := [][]string{
		{"Roll No", "Name", "Class", "Section", "Marks"},
		{"17", "Asha Rao", "10", "B"},
	}
	if diff := cmp.Diff(wantStudents, studentRows); diff != "" {
		t.Errorf("student rows (-want +got):\n%s", diff)
	}
}

func TestExportExamXLSXNotOwner(t *testing.T) {
	_, _, err := newTestService().ExportExamXLSX(context.Background(), "intruder", "E1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
