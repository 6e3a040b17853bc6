package export

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/exam-grader/internal/entity"
	"github.com/joseph-ayodele/exam-grader/internal/repository"
)

const (
	SheetAnswerKey = "Answer Key"
	SheetStudents  = "Students"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	exams      repository.ExamRepository
	answerKeys repository.AnswerKeyRepository
	students   repository.StudentRepository
	logger     *slog.Logger
}

func NewService(exams repository.ExamRepository, answerKeys repository.AnswerKeyRepository, students repository.StudentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{exams: exams, answerKeys: answerKeys, students: students, logger: logger}
}

// ExportExamXLSX returns a grading workbook for one of userID's exams: the
// transcribed answer key on one sheet and the submitted students on another.
// It also returns a suggested download filename.
func (s *Service) ExportExamXLSX(ctx context.Context, userID, examID string) ([]byte, string, error) {
	start := time.Now()

	exam, err := s.exams.GetForOwner(ctx, examID, userID)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.answerKeys.ListByExam(ctx, examID)
	if err != nil {
		return nil, "", fmt.Errorf("query answer key: %w", err)
	}
	students, err := s.students.ListByExam(ctx, examID)
	if err != nil {
		return nil, "", fmt.Errorf("query students: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	// the default workbook has one sheet; rename it rather than leave it empty
	if err := f.SetSheetName(f.GetSheetName(0), SheetAnswerKey); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(SheetStudents); err != nil {
		return nil, "", err
	}

	if err := writeAnswerKey(f, exam, entries); err != nil {
		return nil, "", err
	}
	if err := writeStudents(f, students); err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"exam_id", examID,
		"entries", len(entries),
		"students", len(students),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), Filename(exam), nil
}

func writeAnswerKey(f *excelize.File, exam *entity.Exam, entries []entity.AnswerKeyEntry) error {
	const sheet = SheetAnswerKey
	title := fmt.Sprintf("%s (%s), %s, max marks %v", exam.Name, exam.Subject, exam.ExamDate, exam.MaxMarks)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 3, "Question No", "Question", "Ideal Answer", "Max Marks"); err != nil {
		return err
	}

	total := 0.0
	row := 4
	for _, e := range entries {
		if err := writeRow(f, sheet, row, e.QuestionNo, e.QuestionText, e.IdealAnswer, e.MaxMarkPerQuestion); err != nil {
			return err
		}
		total += e.MaxMarkPerQuestion
		row++
	}
	if err := writeRow(f, sheet, row, "", "", "Total", total); err != nil {
		return err
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // question no
	_ = f.SetColWidth(sheet, "B", "C", 60) // text
	_ = f.SetColWidth(sheet, "D", "D", 12) // marks
	return nil
}

func writeStudents(f *excelize.File, students []entity.StudentDetail) error {
	const sheet = SheetStudents
	if err := writeRow(f, sheet, 1, "Roll No", "Name", "Class", "Section", "Marks"); err != nil {
		return err
	}
	for i, st := range students {
		if err := writeRow(f, sheet, i+2, st.RollNo, st.Name, st.Class, st.Section, ""); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "E", 10)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename is a filesystem-safe download name for an exam's workbook.
func Filename(exam *entity.Exam) string {
	base := strings.Trim(unsafeName.ReplaceAllString(exam.Name, "_"), "_")
	if base == "" {
		base = "exam"
	}
	return fmt.Sprintf("%s_%s.xlsx", base, exam.ExamDate)
}
