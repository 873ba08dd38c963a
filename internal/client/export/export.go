// Package export renders a note's title and HTML content into downloadable
// documents: Markdown with a YAML header, PDF and a Word-compatible .doc.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/dmitrijs2005/notekeeper/internal/client/richtext"
	"github.com/go-pdf/fpdf"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatWord     Format = "doc"
)

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// ParseFormat accepts the file extension with or without a leading dot, plus
// a few long names.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	case "doc", "word":
		return FormatWord, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) Extension() string { return "." + string(f) }

func (f Format) MIMEType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown"
	case FormatPDF:
		return "application/pdf"
	case FormatWord:
		return "application/msword"
	}
	return "application/octet-stream"
}

func check(title, content string) error {
	if strings.TrimSpace(title) == "" && richtext.IsEmpty(content) {
		return ErrNothingToExport
	}
	return nil
}

type frontmatter struct {
	Title    string    `yaml:"title"`
	Exported time.Time `yaml:"exported"`
}

// Markdown writes a YAML frontmatter block followed by the content converted
// to Markdown.
func Markdown(w io.Writer, title, content string, now time.Time) error {
	if err := check(title, content); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(frontmatter{Title: title, Exported: now.UTC()}); err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")

	if !richtext.IsEmpty(content) {
		body, err := md.NewConverter("", true, nil).ConvertString(content)
		if err != nil {
			return fmt.Errorf("convert content: %w", err)
		}
		buf.WriteString("\n")
		buf.WriteString(strings.TrimSpace(body))
		buf.WriteString("\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// PDF writes an A4 document with the title as a heading and one block per
// paragraph of content.
//
// Text is set in the core Helvetica font, which only covers Windows-1252.
// Characters outside it (Cyrillic, CJK, most symbols) cannot be rendered and
// are replaced; use Markdown or Word export for such notes.
func PDF(w io.Writer, title, content string) error {
	if err := check(title, content); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	if t := strings.TrimSpace(title); t != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 9, tr(t), "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "", 12)
	for _, p := range richtext.Paragraphs(content) {
		if strings.TrimSpace(p) == "" {
			pdf.Ln(6)
			continue
		}
		pdf.MultiCell(0, 6, tr(p), "", "L", false)
		pdf.Ln(2)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

const wordTemplate = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`

// Word writes an HTML document Word opens as a .doc file.
func Word(w io.Writer, title, content string) error {
	if err := check(title, content); err != nil {
		return err
	}
	t := html.EscapeString(title)
	body := content
	if richtext.IsEmpty(content) {
		body = ""
	}
	_, err := fmt.Fprintf(w, wordTemplate, t, t, body)
	return err
}

// Write dispatches on f.
func Write(w io.Writer, f Format, title, content string) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, title, content, time.Now())
	case FormatPDF:
		return PDF(w, title, content)
	case FormatWord:
		return Word(w, title, content)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// FileName turns a note title into a file name with the format's extension.
func FileName(title string, f Format) string {
	name := unsafeName.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Trim(name, "._-")
	if name == "" {
		name = "note"
	}
	if r := []rune(name); len(r) > 64 {
		name = string(r[:64])
	}
	return name + f.Extension()
}
