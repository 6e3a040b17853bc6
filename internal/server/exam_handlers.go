package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/exam-grader/internal/auth"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

const examIDCookie = "exam_id"

func (s *Server) addExam(c *fiber.Ctx) error {
	var in entity.NewExam
	if err := c.BodyParser(&in); err != nil {
		return s.writeError(c, common.NewValidationError("body must be a JSON exam", err))
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	if err := common.ValidateStruct(in); err != nil {
		return s.writeError(c, err)
	}

	exam, err := s.deps.Exams.Create(c.UserContext(), auth.UserID(c), in)
	if err != nil {
		return s.writeError(c, common.NewPersistenceError("could not create exam", err))
	}

	// the next answer-key upload may pick the exam up from this cookie
	c.Cookie(&fiber.Cookie{
		Name:     examIDCookie,
		Value:    exam.ID,
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Exam added successfully", "exam": exam})
}

func (s *Server) getExams(c *fiber.Ctx) error {
	exams, err := s.deps.Exams.ListByOwner(c.UserContext(), auth.UserID(c))
	if err != nil {
		return s.writeError(c, common.NewPersistenceError("could not list exams", err))
	}
	return c.JSON(fiber.Map{"exams": exams})
}

// ownedExam resolves the exam id and checks the caller owns it.
func (s *Server) ownedExam(c *fiber.Ctx, examID string) (*entity.Exam, error) {
	if strings.TrimSpace(examID) == "" {
		return nil, common.NewValidationError("exam_id is required", nil)
	}
	exam, err := s.deps.Exams.GetForOwner(c.UserContext(), examID, auth.UserID(c))
	if err != nil {
		return nil, common.EnsureCode(err, common.CodePersistence, "could not load exam")
	}
	return exam, nil
}

func (s *Server) getAnswerKey(c *fiber.Ctx) error {
	exam, err := s.ownedExam(c, c.Params("exam_id"))
	if err != nil {
		return s.writeError(c, err)
	}
	entries, err := s.deps.AnswerKeys.ListByExam(c.UserContext(), exam.ID)
	if err != nil {
		return s.writeError(c, common.NewPersistenceError("could not load answer key", err))
	}
	return c.JSON(fiber.Map{"exam": exam, "answer_key": entries})
}

func (s *Server) getStudents(c *fiber.Ctx) error {
	exam, err := s.ownedExam(c, c.Params("exam_id"))
	if err != nil {
		return s.writeError(c, err)
	}
	students, err := s.deps.Students.ListByExam(c.UserContext(), exam.ID)
	if err != nil {
		return s.writeError(c, common.NewPersistenceError("could not load students", err))
	}
	return c.JSON(fiber.Map{"exam": exam, "students": students})
}

func (s *Server) exportExam(c *fiber.Ctx) error {
	b, name, err := s.deps.Export.ExportExamXLSX(c.UserContext(), auth.UserID(c), c.Params("exam_id"))
	if err != nil {
		return s.writeError(c, common.EnsureCode(err, common.CodePersistence, "could not export exam"))
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(name)
	return c.Send(b)
}
