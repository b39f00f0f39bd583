package blog

import (
	"net/http"
	"strings"

	"miniblog/pkg/validator"
)

const (
	maxTitleLen = 255
	maxNameLen  = 64
)

// EntryForm carries the submitted fields for creating or editing an
// entry, plus any validation errors keyed by field name.
type EntryForm struct {
	Title    string
	Text     string
	Category string

	Errors validator.ValidationErrors
}

// ParseEntryForm reads the entry fields from a POST body. categories is
// the set of valid category names; an empty Category means
// uncategorized.
func ParseEntryForm(r *http.Request, categories []string) *EntryForm {
	f := &EntryForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Text:     r.PostFormValue("text"),
		Category: strings.TrimSpace(r.PostFormValue("category")),
	}
	f.Errors = validator.Apply(
		validator.Required("title", f.Title),
		validator.MaxLen("title", f.Title, maxTitleLen),
		validator.Required("text", f.Text),
		validator.InList("category", f.Category, categories),
	)
	return f
}

// Valid reports whether the form passed validation.
func (f *EntryForm) Valid() bool { return len(f.Errors) == 0 }

func duplicateTitleError() validator.ValidationError {
	return validator.ValidationError{Field: "title", Message: "is already taken"}
}

// CategoryForm carries the submitted name for a new category.
type CategoryForm struct {
	Name string

	Errors validator.ValidationErrors
}

// ParseCategoryForm reads the category name from a POST body.
func ParseCategoryForm(r *http.Request) *CategoryForm {
	name := strings.TrimSpace(r.PostFormValue("name"))
	return &CategoryForm{
		Name: name,
		Errors: validator.Apply(
			validator.Required("name", name),
			validator.MaxLen("name", name, maxNameLen),
		),
	}
}

// Valid reports whether the form passed validation.
func (f *CategoryForm) Valid() bool { return len(f.Errors) == 0 }
