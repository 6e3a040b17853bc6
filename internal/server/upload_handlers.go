package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/exam-grader/internal/auth"
	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/pipeline"
)

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// readUpload never fails outright: an unreadable part becomes an Upload
// carrying Err, which the pipeline reports as a validation failure.
func readUpload(fh *multipart.FileHeader) pipeline.Upload {
	u := pipeline.Upload{Filename: fh.Filename}
	f, err := fh.Open()
	if err != nil {
		u.Err = err
		return u
	}
	defer f.Close()
	if u.Data, err = io.ReadAll(f); err != nil {
		u.Data, u.Err = nil, err
	}
	return u
}

func collectUploads(headers []*multipart.FileHeader) []pipeline.Upload {
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, readUpload(fh))
	}
	return uploads
}

// uploadAnswerKey takes multipart "file". exam_id comes from the form or
// query, falling back to the cookie set by add_exam; the cookie is cleared.
func (s *Server) uploadAnswerKey(c *fiber.Ctx) error {
	examID := firstNonEmpty(c.FormValue("exam_id"), c.Query("exam_id"), c.Cookies(examIDCookie))
	c.ClearCookie(examIDCookie)

	exam, err := s.ownedExam(c, examID)
	if err != nil {
		return s.writeError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return s.writeError(c, common.NewValidationError("multipart field \"file\" is required", err))
	}
	res, err := s.deps.Pipeline.UploadAnswerKey(c.UserContext(), exam.ID, readUpload(fh))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Answer key uploaded successfully",
		"exam_id":    res.ExamID,
		"answer_key": res.Entries,
	})
}

// uploadAnswerScripts takes multipart "files" (one per student) and exam_id
// from the query or form. Per-file failures are reported, not raised.
func (s *Server) uploadAnswerScripts(c *fiber.Ctx) error {
	examID := firstNonEmpty(c.Query("exam_id"), c.FormValue("exam_id"))
	exam, err := s.ownedExam(c, examID)
	if err != nil {
		return s.writeError(c, err)
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File["files"]
	}
	if len(headers) == 0 {
		return s.writeError(c, common.NewValidationError("no files were uploaded", nil))
	}

	uploads := collectUploads(headers)
	res, err := s.deps.Pipeline.SubmitAnswerScripts(c.UserContext(), auth.UserID(c), exam.ID, uploads)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  fmt.Sprintf("Processed %d of %d answer scripts", len(res.Students), len(uploads)),
		"exam_id":  exam.ID,
		"students": res.Students,
		"files":    res.Files,
		"failed":   res.Failed(),
	})
}
