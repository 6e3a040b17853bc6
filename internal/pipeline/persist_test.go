package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

func threeQuestions() []entity.AnswerKeyEntry {
	return []entity.AnswerKeyEntry{
		{QuestionNo: 1, QuestionText: "q1", IdealAnswer: "a1", MaxMarkPerQuestion: 2},
		{QuestionNo: 2, QuestionText: "q2", IdealAnswer: "a2", MaxMarkPerQuestion: 3},
		{QuestionNo: 3, QuestionText: "q3", IdealAnswer: "a3", MaxMarkPerQuestion: 5},
	}
}

func TestSaveAnswerKeyInjectsExamID(t *testing.T) {
	repo := &memAnswerKeys{}
	p := NewPersister(repo, &memStudents{}, quietLogger())

	in := threeQuestions()
	// values a model might have hallucinated must not survive
	in[0].ExamID = "hallucinated"
	in[1].ID = "client-chosen-id"

	saved, err := p.SaveAnswerKey(context.Background(), "E1", in)
	if err != nil {
		t.Fatalf("SaveAnswerKey: %v", err)
	}
	if len(repo.rows) != 3 || len(saved) != 3 {
		t.Fatalf("stored %d rows, returned %d; want 3", len(repo.rows), len(saved))
	}
	for i, r := range repo.rows {
		if r.ExamID != "E1" {
			t.Errorf("row %d exam_id = %q, want E1", i, r.ExamID)
		}
		if r.QuestionNo != i+1 {
			t.Errorf("row %d question_no = %d, insert order not kept", i, r.QuestionNo)
		}
	}
	if saved[1].ID == "client-chosen-id" {
		t.Error("caller-supplied id reached the store")
	}
}

func TestSaveAnswerKeyPartialCommit(t *testing.T) {
	repo := &memAnswerKeys{failAt: 2}
	p := NewPersister(repo, &memStudents{}, quietLogger())

	saved, err := p.SaveAnswerKey(context.Background(), "E1", threeQuestions())
	if !errors.Is(err, common.ErrPersistence) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if !strings.Contains(err.Error(), "1 committed") {
		t.Errorf("error does not report committed rows: %v", err)
	}
	// exactly the prefix before the failure is stored; nothing after it was attempted
	want := []entity.AnswerKeyEntry{
		{ID: "ak-1", ExamID: "E1", QuestionNo: 1, QuestionText: "q1", IdealAnswer: "a1", MaxMarkPerQuestion: 2},
	}
	if diff := cmp.Diff(want, repo.rows); diff != "" {
		t.Errorf("stored rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, saved); diff != "" {
		t.Errorf("returned rows (-want +got):\n%s", diff)
	}
	if repo.calls != 2 {
		t.Errorf("insert attempts = %d, want 2", repo.calls)
	}
}

func TestSaveAnswerKeyRequiresExamID(t *testing.T) {
	repo := &memAnswerKeys{}
	p := NewPersister(repo, &memStudents{}, quietLogger())
	if _, err := p.SaveAnswerKey(context.Background(), " ", threeQuestions()); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if repo.calls != 0 {
		t.Errorf("store called %d times", repo.calls)
	}
}

func TestSaveStudentDetailInjectsKeys(t *testing.T) {
	repo := &memStudents{}
	p := NewPersister(&memAnswerKeys{}, repo, quietLogger())

	got, err := p.SaveStudentDetail(context.Background(), "user-7", "E1", entity.StudentDetail{
		UserID: "someone-else", ExamID: "E99", Name: "Asha", RollNo: "17", Class: "10", Section: "B",
	})
	if err != nil {
		t.Fatalf("SaveStudentDetail: %v", err)
	}
	want := entity.StudentDetail{ID: "st-1", UserID: "user-7", ExamID: "E1", Name: "Asha", RollNo: "17", Class: "10", Section: "B"}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("student (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]entity.StudentDetail{want}, repo.rows); diff != "" {
		t.Errorf("stored (-want +got):\n%s", diff)
	}
}

func TestSaveStudentDetailErrors(t *testing.T) {
	p := NewPersister(&memAnswerKeys{}, &memStudents{failName: "Asha"}, quietLogger())

	if _, err := p.SaveStudentDetail(context.Background(), "", "E1", entity.StudentDetail{Name: "Ravi"}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("missing user: err = %v, want ValidationError", err)
	}
	if _, err := p.SaveStudentDetail(context.Background(), "u1", "E1", entity.StudentDetail{Name: "Asha"}); !errors.Is(err, common.ErrPersistence) {
		t.Errorf("store failure: err = %v, want PersistenceError", err)
	}
}
