package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

type StudentRepository interface {
	// Create inserts one row; the store assigns the id. An empty ExamID is stored as NULL.
	Create(ctx context.Context, s entity.StudentDetail) (*entity.StudentDetail, error)
	ListByExam(ctx context.Context, examID string) ([]entity.StudentDetail, error)
}

type studentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewStudentRepository(db *DB, logger *slog.Logger) StudentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &studentRepository{db: db, logger: logger}
}

func (r *studentRepository) Create(ctx context.Context, s entity.StudentDetail) (*entity.StudentDetail, error) {
	s.ID = uuid.New().String()
	examID := sql.NullString{String: s.ExamID, Valid: s.ExamID != ""}
	query, args := r.db.builder().
		Insert(constants.TableStudents).
		Columns("id", "user_id", "exam_id", "name", "roll_no", "class", "section", "created_at").
		Values(s.ID, s.UserID, examID, s.Name, s.RollNo, s.Class, s.Section, time.Now().UTC()).
		Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert student", "user_id", s.UserID, "exam_id", s.ExamID, "error", err)
		return nil, err
	}
	return &s, nil
}

func (r *studentRepository) ListByExam(ctx context.Context, examID string) ([]entity.StudentDetail, error) {
	b := r.db.builder()
	query, args := b.Select("id", "user_id", "exam_id", "name", "roll_no", "class", "section").
		From(b.Table(constants.TableStudents)).
		Where(entsql.EQ("exam_id", examID)).
		OrderBy("created_at", "id").
		Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list students", "exam_id", examID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.StudentDetail, 0)
	for rows.Next() {
		var (
			s      entity.StudentDetail
			examID sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &examID, &s.Name, &s.RollNo, &s.Class, &s.Section); err != nil {
			return nil, err
		}
		s.ExamID = examID.String
		out = append(out, s)
	}
	return out, rows.Err()
}
