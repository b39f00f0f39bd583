package blog

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"miniblog/pkg/humantime"
)

// Entry is a single blog post. Text holds the raw Markdown source;
// rendering to HTML happens on demand via HTML and TrimmedHTML.
type Entry struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	EntryTime    time.Time `json:"entry_time"`
	CategoryName string    `json:"category_name"`
}

// Category groups entries. Its name doubles as the identifier.
type Category struct {
	Name string `json:"name"`
}

var markdown = goldmark.New()

var paragraphRe = regexp.MustCompile(`(?s)<p>.*?</p>`)

// HTML renders the entry body from Markdown. Raw HTML in the source is
// stripped by the renderer, so the result is safe to inline.
func (e Entry) HTML() template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(e.Text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(e.Text))
	}
	return template.HTML(buf.String())
}

// TrimmedHTML renders the body and keeps at most the first two
// paragraphs, for entry listings.
func (e Entry) TrimmedHTML() template.HTML {
	rendered := string(e.HTML())
	paragraphs := paragraphRe.FindAllString(rendered, 2)
	if len(paragraphs) == 0 {
		return template.HTML(rendered)
	}
	return template.HTML(strings.Join(paragraphs, "\n"))
}

// PrettyDate formats the publication time as a relative phrase
// ("3 days ago"). Falls back to the calendar date when the entry time
// is in the future.
func (e Entry) PrettyDate() string {
	s, err := humantime.PrettyDate(e.EntryTime)
	if err != nil {
		return e.EntryTime.Format("Jan 2, 2006")
	}
	return s
}

