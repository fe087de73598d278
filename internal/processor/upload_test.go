package processor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	limits := DefaultLimits()
	valid := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{' '}, 2048)...)

	tests := []struct {
		name    string
		content []byte
		code    Code
	}{
		{"valid", valid, ""},
		{"missing signature", bytes.Repeat([]byte{'x'}, 2048), CodeInvalidFileType},
		{"empty", nil, CodeInvalidFileType},
		{"too small", []byte("%PDF-1.7\n%%EOF"), CodeFileTooSmall},
		{"exactly minimum", valid[:1024], ""},
		{"too large", append([]byte("%PDF-1.7\n"), make([]byte, 50*mib)...), CodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(ValidateUpload(tt.content, limits)))
		})
	}
}

func TestValidateUpload_SizeMessage(t *testing.T) {
	content := append([]byte("%PDF-1.7\n"), make([]byte, 3*mib)...)
	err := ValidateUpload(content, Limits{MaxFileSize: 2 * mib, MinFileSize: 1024})

	res := Envelope(nil, err)
	assert.Equal(t, "File size (3.0MB) exceeds maximum allowed size (2MB)", res.Message)
	assert.Equal(t, []string{res.Message}, res.Errors)
}
