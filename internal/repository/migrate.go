package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// column types that differ between the two supported stores
type ddlTypes struct {
	real      string
	timestamp string
}

func typesFor(d string) ddlTypes {
	if d == dialect.Postgres {
		return ddlTypes{real: "DOUBLE PRECISION", timestamp: "TIMESTAMPTZ"}
	}
	return ddlTypes{real: "REAL", timestamp: "TIMESTAMP"}
}

func schemaStatements(d string) []string {
	t := typesFor(d)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS exams (
	exam_id    TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	exam_name  TEXT NOT NULL,
	subject    TEXT NOT NULL,
	max_marks  %s NOT NULL,
	exam_date  TEXT NOT NULL,
	created_at %s NOT NULL
)`, t.real, t.timestamp),
		`CREATE INDEX IF NOT EXISTS exams_user_id_idx ON exams (user_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS answer_keys (
	id                    TEXT PRIMARY KEY,
	exam_id               TEXT NOT NULL REFERENCES exams (exam_id) ON DELETE CASCADE,
	question_no           INTEGER NOT NULL,
	question_text         TEXT NOT NULL,
	ideal_answer          TEXT NOT NULL,
	max_mark_per_question %s NOT NULL,
	created_at            %s NOT NULL
)`, t.real, t.timestamp),
		`CREATE INDEX IF NOT EXISTS answer_keys_exam_id_idx ON answer_keys (exam_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	exam_id    TEXT REFERENCES exams (exam_id) ON DELETE SET NULL,
	name       TEXT NOT NULL,
	roll_no    TEXT NOT NULL,
	class      TEXT NOT NULL,
	section    TEXT NOT NULL,
	created_at %s NOT NULL
)`, t.timestamp),
		`CREATE INDEX IF NOT EXISTS students_exam_id_idx ON students (exam_id)`,
	}
}

// Migrate creates the exams, answer_keys and students tables if missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(d.Dialect()) {
		if _, err := d.SQL().ExecContext(ctx, stmt); err != nil {
			d.logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Info("schema up to date", "dialect", d.Dialect())
	return nil
}
