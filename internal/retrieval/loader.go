package retrieval

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

// ExtractText sniffs the uploaded document's content type and extracts plain
// text from it. Supported types: PDF, plain text and markdown.
func ExtractText(data []byte) (string, error) {
	mtype := mimetype.Detect(data)

	switch {
	case mtype.Is("application/pdf"):
		return extractPDFText(data)
	case mtype.Is("text/plain") || mtype.Is("text/markdown"):
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported document type: %s", mtype.String())
	}
}

// extractPDFText pulls the plain text out of every page of a PDF document.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail extraction are skipped rather than failing the
			// whole document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// SplitText splits text into overlapping rune chunks. The last chunk may be
// shorter; whitespace-only chunks are dropped.
func SplitText(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}

	runes := []rune(text)
	step := chunkSize - chunkOverlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
