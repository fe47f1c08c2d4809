// Package textgrid converts PDF pages into plain-text grids that preserve
// the 2-D table layout of the source invoice, so a text-only LLM can read
// columns the way a human would.
package textgrid

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minNativeWords is the threshold below which a page is considered scanned
// and sent through OCR instead of native text extraction.
const minNativeWords = 10

// ocrFailedMarker replaces a page's text when the OCR engine fails; one bad
// page must not abort the whole document.
const ocrFailedMarker = "[OCR FAILED]"

// ExtractError wraps any unrecoverable failure opening or parsing a PDF.
type ExtractError struct {
	Op  string
	Err error
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return "textgrid error: " + e.Op
	}
	return "textgrid error: " + e.Op + ": " + e.Err.Error()
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Options controls grid construction and the OCR fallback.
type Options struct {
	ScaleFactor  float64 // horizontal compression, chars per point
	Tolerance    float64 // vertical line-grouping tolerance in points
	OCRDPI       int
	OCRLanguages string
	OCRConfig    string
}

// Metadata describes how a document was extracted.
type Metadata struct {
	PagesProcessed int    `json:"pages_processed"`
	PagesOCR       int    `json:"pages_ocr"`
	Method         string `json:"method"` // "native" or "hybrid"
}

// Builder extracts spatial text grids from PDF files.
type Builder struct {
	opts   Options
	runner Runner
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil runner uses the real OCR binaries.
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ScaleFactor == 0 {
		opts.ScaleFactor = 0.2
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = 3
	}
	if opts.OCRDPI == 0 {
		opts.OCRDPI = 150
	}
	return &Builder{opts: opts, runner: execRunner{}, logger: logger}
}

// SetRunner overrides the external command runner (used by tests).
func (b *Builder) SetRunner(r Runner) {
	b.runner = r
}

// ExtractContent reads filePath and returns the concatenated per-page text
// grids plus extraction metadata. Any failure opening or parsing the PDF is
// a single typed error; there are no partial results.
func (b *Builder) ExtractContent(ctx context.Context, filePath string) (string, Metadata, error) {
	meta := Metadata{Method: "native"}

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", meta, &ExtractError{Op: "open_pdf", Err: err}
	}
	defer f.Close()

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return "", meta, &ExtractError{Op: "open_pdf", Err: fmt.Errorf("document has no pages")}
	}

	var blocks []string
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		meta.PagesProcessed++
		if page.V.IsNull() {
			continue
		}

		words := extractPageWords(page)

		var pageText, label string
		if len(words) < minNativeWords {
			b.logger.Info("page below native word threshold, using OCR",
				"page", i, "words", len(words))
			meta.PagesOCR++
			meta.Method = "hybrid"
			label = "OCR"
			pageText = b.performOCR(ctx, filePath, i)
		} else {
			b.logger.Info("page extracted natively", "page", i, "words", len(words))
			label = "Native"
			pageText = b.buildGrid(words)
		}

		blocks = append(blocks, fmt.Sprintf("--- Page %d (%s) ---\n%s", i, label, pageText))
	}

	if len(blocks) == 0 {
		return "", meta, &ExtractError{Op: "extract_pages", Err: fmt.Errorf("no readable pages in document")}
	}

	return strings.Join(blocks, "\n"), meta, nil
}

// Word is a positioned token on a PDF page. Top grows downward from the top
// edge of the page, matching how the grid is rendered line by line.
type Word struct {
	Text string
	X0   float64
	Top  float64
}

// extractPageWords assembles the page's raw text fragments into words.
// PDF content streams often emit text character by character, so fragments
// on the same baseline are merged when horizontally adjacent.
func extractPageWords(page pdf.Page) []Word {
	texts := page.Content().Text
	if len(texts) == 0 {
		return nil
	}

	pageHeight := mediaBoxHeight(page)

	type fragment struct {
		text     string
		x, w     float64
		top      float64
		fontSize float64
	}

	var frags []fragment
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		frags = append(frags, fragment{
			text:     t.S,
			x:        t.X,
			w:        t.W,
			top:      pageHeight - t.Y,
			fontSize: t.FontSize,
		})
	}
	if len(frags) == 0 {
		return nil
	}

	// Bucket fragments into baselines, then merge left to right.
	const baselineTolerance = 2.0
	var lines [][]fragment
	for _, frag := range frags {
		placed := false
		for li := range lines {
			if abs(lines[li][0].top-frag.top) <= baselineTolerance {
				lines[li] = append(lines[li], frag)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []fragment{frag})
		}
	}

	var words []Word
	for _, line := range lines {
		sort.Slice(line, func(i, j int) bool { return line[i].x < line[j].x })

		current := Word{Text: line[0].text, X0: line[0].x, Top: line[0].top}
		end := line[0].x + line[0].w
		for _, frag := range line[1:] {
			gap := frag.x - end
			if gap <= joinThreshold(frag.fontSize) {
				current.Text += frag.text
			} else {
				words = append(words, current)
				current = Word{Text: frag.text, X0: frag.x, Top: frag.top}
			}
			end = frag.x + frag.w
		}
		words = append(words, current)
	}

	return words
}

// joinThreshold is the maximum horizontal gap, in points, at which two
// fragments still belong to the same word.
func joinThreshold(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1.0
	}
	return fontSize * 0.3
}

func mediaBoxHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	// A4 height in points; only relative positions matter for grouping.
	return 842
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
