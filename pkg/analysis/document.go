// Package analysis turns uploaded document bytes into a well-formed AnalysisResult.
package analysis

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// TextBudget bounds the raw text handed to the summarizer, in characters.
	TextBudget = 25000
	// StructuredBudget bounds the serialized tables and elements, in characters.
	StructuredBudget = 8000
	// PreviewLength bounds what legacy jobs keep in the conversation.
	PreviewLength = 280

	OmittedPlaceholder = "[omitted]"
	truncationMarker   = "..."
)

type Document struct {
	Name string
	Mime string
	Size int64
	Data []byte
}

const (
	mimePDF     = "application/pdf"
	mimeDoc     = "application/msword"
	mimeDocx    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeOctet   = "application/octet-stream"
	mimeZip     = "application/zip"
	imagePrefix = "image/"
)

var extensionMimes = map[string]string{
	".pdf":  mimePDF,
	".doc":  mimeDoc,
	".docx": mimeDocx,
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
}

// ResolveMime prefers the declared type, then the extension, then content sniffing.
func ResolveMime(name, declared string, data []byte) string {
	declared = normalizeMime(declared)
	if declared != "" && declared != mimeOctet {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(name))
	if known, ok := extensionMimes[ext]; ok {
		return known
	}
	if byExt := normalizeMime(mime.TypeByExtension(ext)); byExt != "" {
		return byExt
	}
	if len(data) > 0 {
		sniff := data
		if len(sniff) > 512 {
			sniff = sniff[:512]
		}
		return normalizeMime(http.DetectContentType(sniff))
	}
	if declared != "" {
		return declared
	}
	return mimeOctet
}

func normalizeMime(m string) string {
	if m == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(m); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func IsStructuredType(m string) bool {
	return m == mimePDF || m == mimeDoc || m == mimeDocx
}

func IsImage(m string) bool {
	return strings.HasPrefix(m, imagePrefix)
}

// IsBinary covers types that cannot be summarized as raw text.
func IsBinary(m string) bool {
	return IsStructuredType(m) || IsImage(m) || m == mimeOctet || m == mimeZip
}

// TruncateText cuts s to max characters and appends an ellipsis when it was longer.
func TruncateText(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + truncationMarker
}

// Preview is the short form kept for legacy jobs.
func Preview(summary string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	if utf8.RuneCountInString(summary) <= PreviewLength {
		return summary
	}
	runes := []rune(summary)
	return string(runes[:PreviewLength-len(truncationMarker)]) + truncationMarker
}
