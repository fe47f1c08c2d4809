package textgrid

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEmptyPagePDF builds a minimal single-page PDF with an empty content
// stream, computing the xref offsets so any conforming reader accepts it.
func writeEmptyPagePDF(t *testing.T) string {
	t.Helper()

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>\nendobj\n",
		"4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefPos)

	path := filepath.Join(t.TempDir(), "empty-page.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractContentCountsEveryPage(t *testing.T) {
	path := writeEmptyPagePDF(t)

	b := NewBuilder(Options{}, nil)
	b.SetRunner(&scriptedRunner{onPdftoppm: writeFakePage, ocrText: "CANT. PRET"})

	text, meta, err := b.ExtractContent(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, meta.PagesProcessed, "every page counts toward pages_processed")
	assert.Equal(t, 1, meta.PagesOCR)
	assert.Equal(t, "hybrid", meta.Method)
	assert.True(t, strings.HasPrefix(text, "--- Page 1 (OCR) ---"), text)
	assert.Contains(t, text, "CANT. PRET")
}
