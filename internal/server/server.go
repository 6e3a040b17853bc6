// Package server exposes the exam-grader HTTP API on fiber.
package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/joseph-ayodele/exam-grader/internal/auth"
	"github.com/joseph-ayodele/exam-grader/internal/pipeline"
	"github.com/joseph-ayodele/exam-grader/internal/repository"
)

// Pipeline is the extraction surface the upload handlers drive.
type Pipeline interface {
	UploadAnswerKey(ctx context.Context, examID string, doc pipeline.Upload) (*pipeline.AnswerKeyResult, error)
	SubmitAnswerScripts(ctx context.Context, userID, examID string, files []pipeline.Upload) (*pipeline.BatchResult, error)
}

// Exporter renders an exam workbook.
type Exporter interface {
	ExportExamXLSX(ctx context.Context, userID, examID string) ([]byte, string, error)
}

type Deps struct {
	Auth       auth.Provider
	Exams      repository.ExamRepository
	AnswerKeys repository.AnswerKeyRepository
	Students   repository.StudentRepository
	Pipeline   Pipeline
	Export     Exporter
}

type Options struct {
	AllowedOrigins string // comma separated
	BodyLimitMB    int
	CookieSecure   bool
	JWTSecret      string
	JWTAudience    string
}

type Server struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New builds the fiber app with middleware and routes registered.
func New(deps Deps, opts Options, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 32
	}
	s := &Server{deps: deps, opts: opts, logger: logger}

	app := fiber.New(fiber.Config{
		AppName:               "exam-grader",
		BodyLimit:             opts.BodyLimitMB << 20,
		ErrorHandler:          s.fiberError,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(s.requestLogger)
	app.Use(recover.New())
	app.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s.routes(app)
	return app
}

func corsConfig(origins string) cors.Config {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "http://localhost:5173"
	}
	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: origins != "*",
	}
}

func (s *Server) routes(app *fiber.App) {
	protected := auth.Protected(auth.MiddlewareConfig{Secret: s.opts.JWTSecret, Audience: s.opts.JWTAudience})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "exam-grader"})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/signup", s.signUp)
	app.Post("/signin", s.signIn)
	app.Get("/signout", protected, s.signOut)
	app.Get("/get_user", protected, s.getUser)

	app.Post("/add_exam", protected, s.addExam)
	app.Get("/get_exams", protected, s.getExams)
	app.Get("/exams/:exam_id/answer_key", protected, s.getAnswerKey)
	app.Get("/exams/:exam_id/students", protected, s.getStudents)
	app.Get("/exams/:exam_id/export", protected, s.exportExam)

	app.Post("/upload_answer_key", protected, s.uploadAnswerKey)
	app.Post("/upload_answer_scripts", protected, s.uploadAnswerScripts)
}
