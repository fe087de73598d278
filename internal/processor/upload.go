package processor

import (
	"bytes"
	"fmt"
)

const mib = 1 << 20

// Limits bounds the inputs the processor accepts.
type Limits struct {
	MaxFileSize  int64
	MinFileSize  int64
	MaxTextBytes int
}

// DefaultLimits mirrors the configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:  50 * mib,
		MinFileSize:  1024,
		MaxTextBytes: 8 * mib,
	}
}

var pdfSignature = []byte("%PDF-")

// ValidateUpload checks size and signature before any decoding happens.
func ValidateUpload(content []byte, limits Limits) error {
	size := int64(len(content))
	if limits.MaxFileSize > 0 && size > limits.MaxFileSize {
		e := NewError(CodeFileTooLarge)
		e.Message = fmt.Sprintf("File size (%.1fMB) exceeds maximum allowed size (%.0fMB)",
			float64(size)/mib, float64(limits.MaxFileSize)/mib)
		e.Details = []string{e.Message}
		return e
	}
	if !bytes.HasPrefix(content, pdfSignature) {
		return NewError(CodeInvalidFileType, "File does not appear to be a valid PDF")
	}
	if size < limits.MinFileSize {
		return NewError(CodeFileTooSmall, "PDF file appears to be too small or corrupted")
	}
	return nil
}
