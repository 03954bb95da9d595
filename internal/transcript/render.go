package transcript

import (
	"strings"
)

// Render writes segments back out in transcript block format. Segments are
// emitted in the order given, tagged with their raw Tag.
func Render(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTime(seg.StartMs))
		b.WriteString(" --> ")
		b.WriteString(FormatTime(seg.EndMs))
		b.WriteString(" [")
		b.WriteString(seg.Tag)
		b.WriteString("]\n")
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			text = "..."
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}
