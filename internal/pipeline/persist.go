package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
	"github.com/joseph-ayodele/exam-grader/internal/repository"
)

// Persister attaches foreign keys to extracted records and writes them.
// Any exam_id/user_id/id a record already carries is overwritten.
type Persister struct {
	answerKeys repository.AnswerKeyRepository
	students   repository.StudentRepository
	logger     *slog.Logger
}

func NewPersister(answerKeys repository.AnswerKeyRepository, students repository.StudentRepository, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{answerKeys: answerKeys, students: students, logger: logger}
}

// SaveAnswerKey inserts one row per entry, in order, each with examID.
//
// The list is not written atomically. The first failed insert stops the loop;
// rows already inserted stay committed and are returned alongside the
// PersistenceError so callers can see exactly what was stored.
func (p *Persister) SaveAnswerKey(ctx context.Context, examID string, entries []entity.AnswerKeyEntry) ([]entity.AnswerKeyEntry, error) {
	if strings.TrimSpace(examID) == "" {
		return nil, common.NewValidationError("exam_id is required to store an answer key", nil)
	}

	saved := make([]entity.AnswerKeyEntry, 0, len(entries))
	for i, e := range entries {
		e.ID = ""
		e.ExamID = examID
		row, err := p.answerKeys.Create(ctx, e)
		if err != nil {
			p.logger.Error("persist.answer_key.insert_failed",
				"exam_id", examID,
				"index", i,
				"question_no", e.QuestionNo,
				"committed", len(saved),
				"error", err,
			)
			msg := fmt.Sprintf("store answer key entry %d of %d (question %d); %d committed",
				i+1, len(entries), e.QuestionNo, len(saved))
			return saved, common.NewPersistenceError(msg, err)
		}
		saved = append(saved, *row)
	}

	p.logger.Info("persist.answer_key.ok", "exam_id", examID, "rows", len(saved))
	return saved, nil
}

// SaveStudentDetail inserts exactly one student row owned by userID.
// examID may be empty, in which case the row has no exam association.
func (p *Persister) SaveStudentDetail(ctx context.Context, userID, examID string, detail entity.StudentDetail) (*entity.StudentDetail, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user_id is required to store a student", nil)
	}
	detail.ID = ""
	detail.UserID = userID
	detail.ExamID = examID

	row, err := p.students.Create(ctx, detail)
	if err != nil {
		p.logger.Error("persist.student.insert_failed", "user_id", userID, "exam_id", examID, "error", err)
		return nil, common.NewPersistenceError("store student detail", err)
	}
	p.logger.Info("persist.student.ok", "user_id", userID, "exam_id", examID, "student_id", row.ID)
	return row, nil
}
