package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoText means the document opened but no page yielded readable text,
	// which is typical of scanned statements.
	ErrNoText = errors.New("no readable text could be extracted from the PDF")

	// ErrUnreadable means the bytes could not be decoded as a PDF document.
	ErrUnreadable = errors.New("file could not be read as a PDF document")
)

// Result is the text of a document plus its page count. Text holds one
// "--- Page N ---" block per page that produced text.
type Result struct {
	Text  string
	Pages int
}

// PDFExtractor pulls text out of PDF bytes. The ledongthuc/pdf reader is
// tried first; pdftotext (poppler-utils) and, when enabled, Tesseract OCR are
// the fallbacks when installed.
type PDFExtractor struct {
	pdftotext bool
	ocr       bool
}

// Option configures a PDFExtractor.
type Option func(*PDFExtractor)

// WithPdftotext enables or disables the pdftotext fallback.
func WithPdftotext(enabled bool) Option {
	return func(e *PDFExtractor) {
		e.pdftotext = enabled
	}
}

// WithOCR enables or disables the OCR fallback for scanned statements.
func WithOCR(enabled bool) Option {
	return func(e *PDFExtractor) {
		e.ocr = enabled
	}
}

// NewPDFExtractor returns an extractor with the pdftotext fallback enabled
// and OCR disabled.
func NewPDFExtractor(opts ...Option) *PDFExtractor {
	e := &PDFExtractor{pdftotext: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the readable text of content.
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	pages, libErr := extractWithLibrary(ctx, content)
	if libErr == nil && IsReadableText(pages) {
		return Result{Text: JoinPages(pages), Pages: len(pages)}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if e.pdftotext || e.ocr {
		toolPages, err := e.extractWithTools(ctx, content)
		if err == nil {
			return Result{Text: JoinPages(toolPages), Pages: len(toolPages)}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
	}

	if libErr != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, libErr)
	}
	return Result{Pages: len(pages)}, ErrNoText
}

// JoinPages renders pages with "--- Page N ---" markers, skipping pages
// without text. Page numbers follow the document, not the output.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", i+1, page)
	}
	return b.String()
}

func extractWithLibrary(ctx context.Context, content []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, errors.New("PDF has no pages")
	}

	pages, err = extractByRow(ctx, r, numPages)
	if err != nil || IsReadableText(pages) {
		return pages, err
	}

	pages, err = extractByContent(ctx, r, numPages)
	if err != nil || IsReadableText(pages) {
		return pages, err
	}

	if plain := extractByReaderPlainText(r); IsReadableText([]string{plain}) {
		return []string{plain}, nil
	}
	return pages, nil
}

// extractByRow keeps the reader's own row grouping. One entry per page,
// empty when the page has no text.
func extractByRow(ctx context.Context, r *pdf.Reader, numPages int) ([]string, error) {
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages[i-1] = strings.Join(lines, "\n")
	}
	return pages, nil
}

type textItem struct {
	x float64
	s string
}

// extractByContent rebuilds rows from glyph coordinates: items sharing a
// rounded Y are one row, ordered by X, with a wide gap marking a column break.
func extractByContent(ctx context.Context, r *pdf.Reader, numPages int) ([]string, error) {
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rowMap[y] = append(rowMap[y], textItem{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			ys = append(ys, y)
		}
		// PDF Y grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		lines := make([]string, 0, len(ys))
		for _, y := range ys {
			if line := joinRow(rowMap[y]); line != "" {
				lines = append(lines, line)
			}
		}
		pages[i-1] = strings.Join(lines, "\n")
	}
	return pages, nil
}

const columnGap = 15

func joinRow(items []textItem) string {
	sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })
	var b strings.Builder
	for j, item := range items {
		if j > 0 && item.x-items[j-1].x > columnGap {
			b.WriteString("  ")
		}
		b.WriteString(item.s)
	}
	return strings.TrimSpace(b.String())
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithTools runs the external fallbacks against a temporary copy of
// content and returns the first readable result.
func (e *PDFExtractor) extractWithTools(ctx context.Context, content []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if e.pdftotext {
		pages, err := extractWithPdftotext(ctx, tmp.Name())
		if err == nil && IsReadableText(pages) {
			return pages, nil
		}
	}
	if e.ocr && OCRAvailable() {
		pages, err := extractWithOCR(ctx, tmp.Name())
		if err == nil && IsReadableText(pages) {
			return pages, nil
		}
	}
	return nil, ErrNoText
}

// extractWithPdftotext shells out to poppler-utils page by page so that
// page numbering survives.
func extractWithPdftotext(ctx context.Context, path string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pdfinfoPages(ctx, path)
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(string(out)))
	}
	if totalTextLen(pages) > 0 {
		return pages, nil
	}

	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, errors.New("pdftotext produced no output")
	}
	return []string{text}, nil
}

// pdfinfoPages returns the page count reported by pdfinfo, or 1.
func pdfinfoPages(ctx context.Context, path string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 1
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err == nil && n > 0 {
			return n
		}
	}
	return 1
}
