package common

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/exam-grader/constants"
)

// Error codes carried by AppError.
const (
	CodeDecode       = "DECODE_ERROR"
	CodeExtraction   = "EXTRACTION_ERROR"
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConfig       = "CONFIG_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches an AppError against the sentinel of its code, so callers can
// write errors.Is(err, common.ErrExtraction).
func (e *AppError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Common application errors
var (
	ErrDecode       = errors.New("decode failed")
	ErrExtraction   = errors.New("extraction failed")
	ErrPersistence  = errors.New("persistence failed")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

var sentinels = map[string]error{
	CodeDecode:       ErrDecode,
	CodeExtraction:   ErrExtraction,
	CodePersistence:  ErrPersistence,
	CodeValidation:   ErrValidation,
	CodeNotFound:     ErrNotFound,
	CodeUnauthorized: ErrUnauthorized,
	CodeConfig:       ErrInvalidInput,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewDecodeError(message string, cause error) error {
	return NewAppError(CodeDecode, message, cause)
}

func NewExtractionError(message string, cause error) error {
	return NewAppError(CodeExtraction, message, cause)
}

func NewPersistenceError(message string, cause error) error {
	return NewAppError(CodePersistence, message, cause)
}

func NewValidationError(message string, cause error) error {
	return NewAppError(CodeValidation, message, cause)
}

func NewNotFoundError(message string) error {
	return NewAppError(CodeNotFound, message, nil)
}

// EnsureCode returns err unchanged when it already carries an AppError,
// otherwise wraps it with the given code. Stage boundaries use it so every
// failure leaving a stage is classified.
func EnsureCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}
	return NewAppError(code, message, err)
}

// CodeOf returns the AppError code of err, or "" for unclassified errors.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// StageOf maps an error to the pipeline stage it was raised in.
func StageOf(err error) constants.Stage {
	switch CodeOf(err) {
	case CodeDecode:
		return constants.StageDecode
	case CodeExtraction:
		return constants.StageExtract
	case CodePersistence:
		return constants.StagePersist
	case CodeValidation:
		return constants.StageValidate
	}
	return ""
}

// MessageOf returns the caller-safe message of an AppError without its cause.
func MessageOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
