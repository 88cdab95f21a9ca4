package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// shortDescriptionLimit is the maximum short description length in runes.
const shortDescriptionLimit = 160

// blockElements end a line when extracting text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// PlainText strips markup from a CJ description. Script and style contents
// are dropped; block elements become line breaks; runs of spaces collapse.
func PlainText(s string) string {
	if !strings.Contains(s, "<") {
		return collapseSpace(html.UnescapeString(s))
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockElements[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockElements[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

// collapseSpace trims each line, collapses inner whitespace and drops blank lines.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// ShortDescription returns at most 160 runes of text on a single line,
// cut at a word boundary when one exists.
func ShortDescription(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= shortDescriptionLimit {
		return text
	}

	cut := runes[:shortDescriptionLimit]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsPunct)
		}
	}
	return string(cut)
}
