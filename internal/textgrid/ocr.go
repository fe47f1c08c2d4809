package textgrid

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Runner executes external extraction binaries. Abstracted so tests can
// substitute canned OCR output without pdftoppm/tesseract installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// performOCR rasterizes a single page and runs it through tesseract.
// Failures return the sentinel marker instead of an error so the remaining
// pages still get processed.
func (b *Builder) performOCR(ctx context.Context, filePath string, pageNum int) string {
	text, err := b.ocrPage(ctx, filePath, pageNum)
	if err != nil {
		b.logger.Error("OCR failed", "page", pageNum, "error", err)
		return ocrFailedMarker
	}
	b.logger.Info("OCR completed", "page", pageNum, "languages", b.opts.OCRLanguages)
	return text
}

func (b *Builder) ocrPage(ctx context.Context, filePath string, pageNum int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "invgrid-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	pageArg := fmt.Sprintf("%d", pageNum)
	// pdftoppm -f N -l N -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := b.runner.Run(ctx, "pdftoppm",
		"-f", pageArg, "-l", pageArg,
		"-r", fmt.Sprintf("%d", b.opts.OCRDPI),
		"-png", filePath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images for page %d", pageNum)
	}

	args := []string{matches[0], "stdout"}
	if b.opts.OCRLanguages != "" {
		args = append(args, "-l", b.opts.OCRLanguages)
	}
	args = append(args, strings.Fields(b.opts.OCRConfig)...)

	out, errb, err := b.runner.Run(ctx, "tesseract", args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	// tesseract terminates stdout with a form feed
	return strings.TrimSpace(string(out)), nil
}
