package service

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	epub "github.com/go-shiori/go-epub"

	"github.com/storyforge/backend/models"
)

const (
	FormatEPUB = "epub"
	FormatTXT  = "txt"

	contentTypeEPUB = "application/epub+zip"
	contentTypeTXT  = "text/plain; charset=utf-8"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ExportChapter renders one chapter as downloadable file bytes.
func ExportChapter(book *models.Book, ch *models.Chapter, format string) (data []byte, contentType, filename string, err error) {
	base := slugify(book.Title) + "-" + slugify(ch.Title)
	switch format {
	case FormatTXT:
		text := ch.Title + "\n\n" + ch.Content + "\n"
		return []byte(text), contentTypeTXT, base + ".txt", nil
	case FormatEPUB:
		data, err := chapterEPUB(book, ch)
		if err != nil {
			return nil, "", "", err
		}
		return data, contentTypeEPUB, base + ".epub", nil
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %q", format)
	}
}

func chapterEPUB(book *models.Book, ch *models.Chapter) ([]byte, error) {
	e, err := epub.NewEpub(book.Title)
	if err != nil {
		return nil, fmt.Errorf("create epub: %w", err)
	}
	e.SetLang("en")
	e.SetDescription(book.Genre)

	var body strings.Builder
	body.WriteString("<h1>" + html.EscapeString(ch.Title) + "</h1>\n")
	for _, para := range strings.Split(ch.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		body.WriteString("<p>" + html.EscapeString(para) + "</p>\n")
	}
	if _, err := e.AddSection(body.String(), ch.Title, "", ""); err != nil {
		return nil, fmt.Errorf("add section to epub: %w", err)
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write epub: %w", err)
	}
	return buf.Bytes(), nil
}

func slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "chapter"
	}
	return s
}
