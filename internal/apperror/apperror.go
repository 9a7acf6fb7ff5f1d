// Package apperror defines the failure taxonomy shared by every pipeline stage.
package apperror

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure by the boundary it crossed.
type ErrorType string

const (
	TypeRetrieval     ErrorType = "RETRIEVAL"
	TypeGeneration    ErrorType = "GENERATION"
	TypeSynthesis     ErrorType = "SYNTHESIS"
	TypeEncoding      ErrorType = "ENCODING"
	TypeConfiguration ErrorType = "CONFIGURATION"
)

// Sentinels for errors.Is checks, one per ErrorType.
var (
	ErrRetrieval     = errors.New("retrieval failed")
	ErrGeneration    = errors.New("generation failed")
	ErrSynthesis     = errors.New("synthesis failed")
	ErrEncoding      = errors.New("encoding failed")
	ErrConfiguration = errors.New("invalid configuration")
)

// Error is a classified failure with enough context to tell which stage
// failed for which paper.
type Error struct {
	Type    ErrorType
	Stage   string
	PaperID string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinel(e.Type).Error()
	}
	prefix := e.Stage
	if e.PaperID != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Stage, e.PaperID)
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's type.
func (e *Error) Is(target error) bool {
	return target != nil && target == sentinel(e.Type)
}

func sentinel(t ErrorType) error {
	switch t {
	case TypeRetrieval:
		return ErrRetrieval
	case TypeGeneration:
		return ErrGeneration
	case TypeSynthesis:
		return ErrSynthesis
	case TypeEncoding:
		return ErrEncoding
	case TypeConfiguration:
		return ErrConfiguration
	default:
		return nil
	}
}

// newError creates a classified error.
func newError(t ErrorType, stage, paperID string, err error) *Error {
	return &Error{Type: t, Stage: stage, PaperID: paperID, Err: err}
}

// newErrorf creates a classified error with a formatted message and no cause.
func newErrorf(t ErrorType, stage, paperID string, format string, args ...interface{}) *Error {
	return &Error{Type: t, Stage: stage, PaperID: paperID, Message: fmt.Sprintf(format, args...)}
}

// Retrieval reports a failure talking to the paper index.
func Retrieval(paperID string, err error) *Error {
	return newError(TypeRetrieval, "fetch", paperID, err)
}

// Generation reports a failure of the generative-language model.
func Generation(stage, paperID string, err error) *Error {
	return newError(TypeGeneration, stage, paperID, err)
}

// Synthesis reports a text-to-speech failure.
func Synthesis(paperID string, err error) *Error {
	return newError(TypeSynthesis, "synthesize", paperID, err)
}

// Encoding reports a failure of the external encoder.
func Encoding(err error) *Error {
	return newError(TypeEncoding, "assemble", "", err)
}

// Configuration reports invalid or missing settings.
func Configuration(format string, args ...interface{}) *Error {
	return newErrorf(TypeConfiguration, "config", "", format, args...)
}

// TypeOf returns the ErrorType of the first classified error in the chain,
// or "" when err is not classified.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// StageOf returns the stage recorded on the first classified error in the chain.
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
