// Package ingest reads uploaded documents, extracts their text and feeds
// them through the chunking and indexing pipeline.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrUnsupportedFormat is returned for document types the loader does not handle.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrUndecodable is returned when no encoding in the fallback list could
	// decode the source text, or when a document's content cannot be read.
	ErrUndecodable = errors.New("could not decode document text")
)

// Loader extracts plain text from supported document files
// (.txt, .md, .markdown, .pdf).
type Loader struct {
	markdown goldmark.Markdown
}

// NewLoader creates a document loader.
func NewLoader() *Loader {
	return &Loader{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Supported reports whether the loader handles the given filename's extension.
func (l *Loader) Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown", ".pdf":
		return true
	}
	return false
}

// Load reads the file at path and returns its extracted plain text.
// Returns ErrUnsupportedFormat for unknown extensions and ErrUndecodable
// when the content cannot be decoded.
func (l *Loader) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return decodeText(path, data)
	case ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		text, err := decodeText(path, data)
		if err != nil {
			return "", err
		}
		return l.markdownText([]byte(text)), nil
	case ".pdf":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return pdfText(path, data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// decodeText decodes raw bytes trying utf-8, windows-1252 and latin-1 in order.
func decodeText(path string, data []byte) (string, error) {
	// NUL bytes mean binary content, not text in any supported encoding.
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrUndecodable, path)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if !bytes.ContainsRune(decoded, utf8.RuneError) {
			return string(decoded), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUndecodable, path)
}

// markdownText parses markdown and flattens it to plain text, dropping
// formatting but keeping the readable content in document order.
func (l *Loader) markdownText(content []byte) string {
	reader := gmtext.NewReader(content)
	doc := l.markdown.Parser().Parse(reader)

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.HardLineBreak() || node.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
		case *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(content))
			}
		case *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(content))
			}
		}
		return ast.WalkContinue, nil
	})

	return b.String()
}

// pdfText extracts the plain text of every page of a PDF document.
func pdfText(path string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %v", ErrUndecodable, path, err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: extract pdf page %d of %s: %v", ErrUndecodable, i, path, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
