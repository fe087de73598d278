package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// OCR settings: 300 DPI renders, Tesseract page segmentation mode 4 (a single
// column of text of variable sizes), which suits statement layouts.
const (
	ocrDPI = "300"
	ocrPSM = "4"
)

// OCRLanguages are the Tesseract language packs used for card statements.
var OCRLanguages = "eng+spa"

// OCRAvailable reports whether pdftoppm and tesseract are both on PATH.
func OCRAvailable() bool {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return false
	}
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// extractWithOCR renders each page to PNG and reads it back with Tesseract.
// Pages that fail to OCR are kept as empty entries so numbering is stable.
func extractWithOCR(ctx context.Context, path string) ([]string, error) {
	if !OCRAvailable() {
		return nil, fmt.Errorf("OCR tools not available (install poppler-utils and tesseract-ocr)")
	}

	dir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create OCR dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if out, err := exec.CommandContext(ctx, "pdftoppm", "-r", ocrDPI, "-png", path, prefix).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	images, err := pageImages(dir)
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := exec.CommandContext(ctx, "tesseract", img, "stdout", "-l", OCRLanguages, "--psm", ocrPSM).Output()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(string(out)))
	}

	if totalTextLen(pages) == 0 {
		return nil, fmt.Errorf("tesseract produced no text from %d page images", len(images))
	}
	return pages, nil
}

// pageImages lists the PNGs pdftoppm wrote, in page order. pdftoppm pads page
// numbers to a common width, so a lexical sort is page order.
func pageImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read OCR dir: %w", err)
	}
	var images []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}
	sort.Strings(images)
	return images, nil
}
