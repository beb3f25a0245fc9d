package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Element is one structured item from the extractor: a table, list or heading block.
type Element struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StructuredPayload serializes elements in order until the next one would
// exceed budget. Items are never cut; when nothing fits the payload is the
// omitted placeholder.
func StructuredPayload(elements []Element, budget int) string {
	if len(elements) == 0 {
		return ""
	}

	var (
		b    strings.Builder
		used int
	)
	for _, el := range elements {
		item := renderElement(el)
		size := utf8.RuneCountInString(item)
		if used > 0 {
			size++ // newline separator
		}
		if used+size > budget {
			break
		}
		if used > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(item)
		used += size
	}

	if used == 0 {
		return OmittedPlaceholder
	}
	return b.String()
}

func renderElement(el Element) string {
	kind := el.Type
	if kind == "" {
		kind = "element"
	}
	return fmt.Sprintf("[%s]\n%s", kind, strings.TrimSpace(el.Content))
}
