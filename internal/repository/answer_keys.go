package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

type AnswerKeyRepository interface {
	// Create inserts one row; the store assigns the id.
	Create(ctx context.Context, entry entity.AnswerKeyEntry) (*entity.AnswerKeyEntry, error)
	ListByExam(ctx context.Context, examID string) ([]entity.AnswerKeyEntry, error)
}

type answerKeyRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewAnswerKeyRepository(db *DB, logger *slog.Logger) AnswerKeyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &answerKeyRepository{db: db, logger: logger}
}

func (r *answerKeyRepository) Create(ctx context.Context, entry entity.AnswerKeyEntry) (*entity.AnswerKeyEntry, error) {
	entry.ID = uuid.New().String()
	query, args := r.db.builder().
		Insert(constants.TableAnswerKeys).
		Columns("id", "exam_id", "question_no", "question_text", "ideal_answer", "max_mark_per_question", "created_at").
		Values(entry.ID, entry.ExamID, entry.QuestionNo, entry.QuestionText, entry.IdealAnswer, entry.MaxMarkPerQuestion, time.Now().UTC()).
		Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert answer key entry", "exam_id", entry.ExamID, "question_no", entry.QuestionNo, "error", err)
		return nil, err
	}
	return &entry, nil
}

func (r *answerKeyRepository) ListByExam(ctx context.Context, examID string) ([]entity.AnswerKeyEntry, error) {
	b := r.db.builder()
	query, args := b.Select("id", "exam_id", "question_no", "question_text", "ideal_answer", "max_mark_per_question").
		From(b.Table(constants.TableAnswerKeys)).
		Where(entsql.EQ("exam_id", examID)).
		OrderBy("question_no", "created_at").
		Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list answer key", "exam_id", examID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.AnswerKeyEntry, 0)
	for rows.Next() {
		var e entity.AnswerKeyEntry
		if err := rows.Scan(&e.ID, &e.ExamID, &e.QuestionNo, &e.QuestionText, &e.IdealAnswer, &e.MaxMarkPerQuestion); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
