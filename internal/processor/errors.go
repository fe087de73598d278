package processor

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// Code is a stable, client-facing error code.
type Code string

const (
	CodeInvalidFileType     Code = "INVALID_FILE_TYPE"
	CodeFileTooLarge        Code = "FILE_TOO_LARGE"
	CodeFileTooSmall        Code = "FILE_TOO_SMALL"
	CodeCorruptedPDF        Code = "CORRUPTED_PDF"
	CodeNoTextExtracted     Code = "NO_TEXT_EXTRACTED"
	CodeTextTooLarge        Code = "TEXT_TOO_LARGE"
	CodeUnsupportedBank     Code = "UNSUPPORTED_BANK"
	CodeNoTransactionsFound Code = "NO_TRANSACTIONS_FOUND"
	CodeProcessingTimeout   Code = "PROCESSING_TIMEOUT"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// MessageUnexpected is the only message a caller sees for internal failures.
const MessageUnexpected = "An unexpected error occurred while processing the PDF"

var defaultMessages = map[Code]string{
	CodeInvalidFileType:     "File does not appear to be a valid PDF",
	CodeFileTooLarge:        "File exceeds the maximum allowed size",
	CodeFileTooSmall:        "PDF file appears to be too small or corrupted",
	CodeCorruptedPDF:        "Failed to process PDF",
	CodeNoTextExtracted:     "Unable to extract text from PDF",
	CodeTextTooLarge:        "Extracted text exceeds the processing limit",
	CodeUnsupportedBank:     "Unsupported bank",
	CodeNoTransactionsFound: "No transactions found in the statement",
	CodeProcessingTimeout:   "Processing was cancelled or timed out",
	CodeInternal:            MessageUnexpected,
}

// Error is a classified processing failure. Message and Details are safe to
// return to clients; Err carries the underlying cause for logs only.
type Error struct {
	Code    Code
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error with the default message for code.
func NewError(code Code, details ...string) *Error {
	return &Error{Code: code, Message: Message(code), Details: details}
}

// Message returns the default message for code.
func Message(code Code) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return MessageUnexpected
}

func wrapError(code Code, err error, details ...string) *Error {
	e := NewError(code, details...)
	e.Err = err
	return e
}

func internalError(err error) *Error {
	return wrapError(CodeInternal, err, "Internal error")
}

// CodeOf returns the Code carried by err, or CodeInternal for anything
// unclassified. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

// Envelope converts a processing outcome into the response envelope.
// Unclassified errors never leak their text.
func Envelope(stmt *models.ProcessedStatement, err error) *models.ProcessingResult {
	if err == nil {
		if stmt == nil {
			return models.ErrorResult(MessageUnexpected, "Internal error")
		}
		return models.SuccessResult(stmt)
	}
	var pe *Error
	if errors.As(err, &pe) && pe.Code != CodeInternal {
		return models.ErrorResult(pe.Message, pe.Details...)
	}
	return models.ErrorResult(MessageUnexpected, "Internal error")
}
