package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

var examColumns = []string{"exam_id", "user_id", "exam_name", "subject", "max_marks", "exam_date", "created_at"}

type ExamRepository interface {
	Create(ctx context.Context, userID string, in entity.NewExam) (*entity.Exam, error)
	// GetForOwner returns the exam only if it belongs to userID; otherwise NOT_FOUND.
	GetForOwner(ctx context.Context, examID, userID string) (*entity.Exam, error)
	ListByOwner(ctx context.Context, userID string) ([]entity.Exam, error)
}

type examRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewExamRepository(db *DB, logger *slog.Logger) ExamRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &examRepository{db: db, logger: logger}
}

func (r *examRepository) Create(ctx context.Context, userID string, in entity.NewExam) (*entity.Exam, error) {
	e := &entity.Exam{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Subject:   in.Subject,
		MaxMarks:  in.MaxMarks,
		ExamDate:  in.ExamDate,
		CreatedAt: time.Now().UTC(),
	}
	query, args := r.db.builder().
		Insert(constants.TableExams).
		Columns(examColumns...).
		Values(e.ID, e.UserID, e.Name, e.Subject, e.MaxMarks, e.ExamDate, e.CreatedAt).
		Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create exam", "user_id", userID, "name", in.Name, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *examRepository) GetForOwner(ctx context.Context, examID, userID string) (*entity.Exam, error) {
	b := r.db.builder()
	query, args := b.Select(examColumns...).
		From(b.Table(constants.TableExams)).
		Where(entsql.And(entsql.EQ("exam_id", examID), entsql.EQ("user_id", userID))).
		Query()
	row := r.db.SQL().QueryRowContext(ctx, query, args...)
	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFoundError("exam not found")
	}
	if err != nil {
		r.logger.Error("failed to get exam", "exam_id", examID, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *examRepository) ListByOwner(ctx context.Context, userID string) ([]entity.Exam, error) {
	b := r.db.builder()
	query, args := b.Select(examColumns...).
		From(b.Table(constants.TableExams)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), "exam_id").
		Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list exams", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExam(s scanner) (*entity.Exam, error) {
	var e entity.Exam
	if err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Subject, &e.MaxMarks, &e.ExamDate, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
