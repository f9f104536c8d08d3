// Package segment splits freeform pasted text into titled chapters by
// detecting conventional chapter headings.
package segment

import (
	"regexp"
	"strings"
)

// A heading is the word "chapter" at the start of a line followed by an
// Arabic or Roman numeral. The title is only the matched heading; anything
// after the numeral on the same line belongs to the chapter content.
var headingRe = regexp.MustCompile(`(?im)^chapter\s+(\d+|[ivxlcdm]+)`)

// Part is one (title, content) pair produced by Split.
type Part struct {
	Title   string
	Content string
}

// Split partitions text into chapters at recognized headings, in input
// order. Non-blank text before the first heading becomes a "Prologue" part.
// Headings followed by no content are dropped. When nothing is recognized
// (or every heading was empty) non-blank input collapses to a single
// "Chapter 1" part. Blank input yields nil.
func Split(text string) []Part {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	locs := headingRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Part{{Title: "Chapter 1", Content: trimmed}}
	}

	var parts []Part
	prologue := strings.TrimSpace(text[:locs[0][0]])
	for i, loc := range locs {
		title := strings.TrimSpace(text[loc[0]:loc[1]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(text[loc[1]:end])
		if content == "" {
			continue
		}
		if prologue != "" {
			parts = append(parts, Part{Title: "Prologue", Content: prologue})
			prologue = ""
		}
		parts = append(parts, Part{Title: title, Content: content})
	}

	if len(parts) == 0 {
		return []Part{{Title: "Chapter 1", Content: trimmed}}
	}
	return parts
}
