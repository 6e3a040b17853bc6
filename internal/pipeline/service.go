package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/entity"
)

// Upload is one uploaded document.
type Upload struct {
	FileID   string // optional; generated when empty
	Filename string
	Data     []byte
	Err      error // set when the part could not be read; the file fails validation
}

// FileResult is the terminal state of one file in a batch.
type FileResult struct {
	FileID   string                `json:"file_id"`
	Filename string                `json:"filename"`
	Status   constants.FileStatus  `json:"status"`
	Stage    constants.Stage       `json:"stage,omitempty"`  // failing stage, FAILED only
	Detail   string                `json:"detail,omitempty"` // caller-safe reason, FAILED only
	Student  *entity.StudentDetail `json:"student,omitempty"`
}

// BatchResult holds successes in input order plus one result per input file.
type BatchResult struct {
	Students []entity.StudentDetail `json:"students"`
	Files    []FileResult           `json:"files"`
}

// Failed counts files that did not reach PERSISTED.
func (b *BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if f.Status == constants.FileStatusFailed {
			n++
		}
	}
	return n
}

// AnswerKeyResult is returned by UploadAnswerKey.
type AnswerKeyResult struct {
	ExamID  string                  `json:"exam_id"`
	Entries []entity.AnswerKeyEntry `json:"entries"`
}

type Service struct {
	decoder   Decoder
	extractor Extractor
	persister *Persister
	logger    *slog.Logger
}

func NewService(decoder Decoder, extractor Extractor, persister *Persister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{decoder: decoder, extractor: extractor, persister: persister, logger: logger}
}

// UploadAnswerKey decodes one answer-key document, transcribes it and stores
// every entry under examID. Any stage error aborts the call; see
// Persister.SaveAnswerKey for what a mid-list store failure leaves behind.
func (s *Service) UploadAnswerKey(ctx context.Context, examID string, doc Upload) (*AnswerKeyResult, error) {
	start := time.Now()
	if strings.TrimSpace(examID) == "" {
		return nil, common.NewValidationError("exam_id is required", nil)
	}
	if err := checkUpload(doc); err != nil {
		return nil, err
	}

	log := s.logger.With("request_id", common.RequestIDFromContext(ctx), "exam_id", examID, "filename", doc.Filename)
	log.Info("pipeline.answer_key.start", "bytes", len(doc.Data))

	images, err := s.decoder.Decode(ctx, doc.Data)
	if err != nil {
		log.Error("pipeline.answer_key.decode_failed", "error", err)
		return nil, common.EnsureCode(err, common.CodeDecode, "decode answer key")
	}

	entries, err := s.extractor.ExtractAnswerKey(ctx, images)
	if err != nil {
		log.Error("pipeline.answer_key.extract_failed", "pages", len(images), "error", err)
		return nil, common.EnsureCode(err, common.CodeExtraction, "extract answer key")
	}

	saved, err := s.persister.SaveAnswerKey(ctx, examID, entries)
	if err != nil {
		log.Error("pipeline.answer_key.persist_failed", "committed", len(saved), "error", err)
		return nil, err
	}

	log.Info("pipeline.answer_key.ok",
		"pages", len(images),
		"entries", len(saved),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &AnswerKeyResult{ExamID: examID, Entries: saved}, nil
}

// SubmitAnswerScripts processes each answer script independently, one at a
// time in input order. A file that fails at any stage is recorded as FAILED
// and the batch continues; only invalid batch-level input returns an error.
func (s *Service) SubmitAnswerScripts(ctx context.Context, userID, examID string, files []Upload) (*BatchResult, error) {
	start := time.Now()
	if len(files) == 0 {
		return nil, common.NewValidationError("at least one answer script is required", nil)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("submitter identity is required", nil)
	}
	if strings.TrimSpace(examID) == "" {
		return nil, common.NewValidationError("exam_id is required", nil)
	}

	batchID := uuid.New().String()
	log := s.logger.With("request_id", common.RequestIDFromContext(ctx), "batch_id", batchID, "exam_id", examID, "user_id", userID)
	log.Info("pipeline.batch.start", "files", len(files))

	res := &BatchResult{
		Students: make([]entity.StudentDetail, 0, len(files)),
		Files:    make([]FileResult, 0, len(files)),
	}
	for i, f := range files {
		fr := FileResult{FileID: f.FileID, Filename: f.Filename, Status: constants.FileStatusPending}
		if fr.FileID == "" {
			fr.FileID = uuid.New().String()
		}

		if err := ctx.Err(); err != nil {
			fr.Status = constants.FileStatusFailed
			fr.Detail = "request canceled before this file was processed"
			res.Files = append(res.Files, fr)
			continue
		}

		student, err := s.processScript(ctx, userID, examID, f, &fr)
		if err != nil {
			fr.Status = constants.FileStatusFailed
			fr.Detail = common.MessageOf(err)
			log.Warn("pipeline.file.failed",
				"index", i,
				"file_id", fr.FileID,
				"filename", f.Filename,
				"stage", fr.Stage,
				"error", err,
			)
			res.Files = append(res.Files, fr)
			continue
		}

		fr.Student = student
		res.Students = append(res.Students, *student)
		res.Files = append(res.Files, fr)
	}

	log.Info("pipeline.batch.done",
		"files", len(files),
		"persisted", len(res.Students),
		"failed", res.Failed(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// processScript advances fr through the stages. On failure fr.Stage is the
// stage that was running.
func (s *Service) processScript(ctx context.Context, userID, examID string, f Upload, fr *FileResult) (*entity.StudentDetail, error) {
	fr.Stage = constants.StageValidate
	if err := checkUpload(f); err != nil {
		return nil, err
	}

	fr.Stage = constants.StageDecode
	images, err := s.decoder.Decode(ctx, f.Data)
	if err != nil {
		return nil, common.EnsureCode(err, common.CodeDecode, "decode answer script")
	}
	fr.Status = constants.FileStatusDecoded

	fr.Stage = constants.StageExtract
	detail, err := s.extractor.ExtractStudentDetail(ctx, images)
	if err != nil {
		return nil, common.EnsureCode(err, common.CodeExtraction, "extract student detail")
	}
	fr.Status = constants.FileStatusExtracted

	fr.Stage = constants.StagePersist
	saved, err := s.persister.SaveStudentDetail(ctx, userID, examID, detail)
	if err != nil {
		return nil, common.EnsureCode(err, common.CodePersistence, "store student detail")
	}
	fr.Status = constants.FileStatusPersisted
	fr.Stage = ""
	return saved, nil
}

func checkUpload(u Upload) error {
	if u.Err != nil {
		return common.NewValidationError(fmt.Sprintf("could not read %q", u.Filename), u.Err)
	}
	if len(u.Data) == 0 {
		return common.NewValidationError(fmt.Sprintf("file %q is empty", u.Filename), nil)
	}
	if ext := filepath.Ext(u.Filename); !constants.IsAllowedExt(ext) {
		return common.NewValidationError(
			fmt.Sprintf("file %q has unsupported extension %q (allowed: pdf, png, jpg, jpeg)", u.Filename, ext),
			common.ErrInvalidInput,
		)
	}
	return nil
}
