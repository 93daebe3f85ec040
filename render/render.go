// Package render turns generated letters into HTML. Letters written to the
// three-part structure carry `**[n] 제목**` marker lines; those become titled
// sections so the parts can be read and copied separately.
package render

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Section is one part of a letter. Title is empty for text outside any marker.
type Section struct {
	Index int    `json:"index,omitempty"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

var (
	markerRe = regexp.MustCompile(`(?m)^[ \t]*(?:#{1,6}[ \t]*)?\*\*\[(\d+)\][ \t]*([^*\n]+?)[ \t]*\*\*[ \t]*$`)
	// length hints like "(약 400-500자)" are instructions, not titles
	hintRe = regexp.MustCompile(`\s*\([^)]*자\)$`)
)

// Split cuts a letter at its section markers. Blank sections are dropped; a
// letter without markers is a single untitled section.
func Split(letter string) []Section {
	text := strings.ReplaceAll(letter, "\r\n", "\n")
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if body := strings.TrimSpace(text); body != "" {
			return []Section{{Body: body}}
		}
		return nil
	}

	var out []Section
	if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
		out = append(out, Section{Body: lead})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		idx := 0
		for _, c := range text[loc[2]:loc[3]] {
			idx = idx*10 + int(c-'0')
		}
		out = append(out, Section{
			Index: idx,
			Title: hintRe.ReplaceAllString(text[loc[4]:loc[5]], ""),
			Body:  strings.TrimSpace(text[loc[1]:end]),
		})
	}
	return out
}

// ToHTML renders every section of letter; titled sections are wrapped in
// <section> with an <h3> heading.
func ToHTML(letter string) (string, error) {
	var buf bytes.Buffer
	for _, s := range Split(letter) {
		if s.Title == "" {
			if err := md.Convert([]byte(s.Body), &buf); err != nil {
				return "", err
			}
			continue
		}
		buf.WriteString(`<section class="letter-part"><h3>`)
		buf.WriteString(html.EscapeString(s.Title))
		buf.WriteString("</h3>\n")
		if err := md.Convert([]byte(s.Body), &buf); err != nil {
			return "", err
		}
		buf.WriteString("</section>\n")
	}
	return buf.String(), nil
}

// Card is one rendered letter on a page.
type Card struct {
	Heading string
	HTML    string
	Failed  bool
}

// Page wraps rendered letters into a standalone HTML document.
func Page(title string, cards []Card) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html lang=\"ko\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n<style>\nbody{font-family:sans-serif;max-width:860px;margin:2em auto}\n")
	b.WriteString("article{border:1px solid #ccc;border-radius:8px;padding:1em;margin:1em 0}\n")
	b.WriteString("article.failed{border-color:#c33;color:#c33}\n</style>\n</head>\n<body>\n<h1>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1>\n")
	for _, c := range cards {
		if c.Failed {
			b.WriteString(`<article class="failed">`)
		} else {
			b.WriteString("<article>")
		}
		b.WriteString("<h2>")
		b.WriteString(html.EscapeString(c.Heading))
		b.WriteString("</h2>\n")
		b.WriteString(c.HTML)
		b.WriteString("</article>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
