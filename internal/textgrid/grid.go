package textgrid

import (
	"sort"
	"strings"
)

// buildGrid renders words into a multi-line string preserving column
// alignment. Words are grouped into lines by vertical proximity, then each
// word is placed at the character column derived from its horizontal pixel
// position via the scale factor, padded with at least one space.
func (b *Builder) buildGrid(words []Word) string {
	return BuildGrid(words, b.opts.ScaleFactor, b.opts.Tolerance)
}

// BuildGrid is the grid algorithm itself, exposed for direct use by tests
// and tooling.
func BuildGrid(words []Word, scaleFactor, tolerance float64) string {
	if len(words) == 0 {
		return ""
	}

	// Group words into line buckets keyed by the representative top of the
	// first word seen for that line.
	type lineBucket struct {
		top   float64
		words []Word
	}

	var lines []*lineBucket
	for _, word := range words {
		var matched *lineBucket
		for _, bucket := range lines {
			if absDiff(bucket.top, word.Top) <= tolerance {
				matched = bucket
				break
			}
		}
		if matched == nil {
			matched = &lineBucket{top: word.Top}
			lines = append(lines, matched)
		}
		matched.words = append(matched.words, word)
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].top < lines[j].top })

	var out []string
	for _, bucket := range lines {
		sort.Slice(bucket.words, func(i, j int) bool {
			return bucket.words[i].X0 < bucket.words[j].X0
		})

		var line strings.Builder
		for _, word := range bucket.words {
			targetPos := int(word.X0 * scaleFactor)
			padding := targetPos - line.Len()
			if padding < 1 {
				padding = 1
			}
			line.WriteString(strings.Repeat(" ", padding))
			line.WriteString(word.Text)
		}
		out = append(out, line.String())
	}

	return strings.Join(out, "\n")
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
