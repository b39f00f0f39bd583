package blog

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"miniblog/modules/auth"
	"miniblog/pkg/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageData is what every template receives. Data carries the
// page-specific payload.
type pageData struct {
	Title      string
	Principal  string
	CSRFToken  string
	Flashes    []string
	Errors     []string
	Categories []string
	Recent     []Entry
	Data       any
}

// Renderer executes the embedded page templates. Each page is parsed
// together with the shared layout so pages can override its blocks.
type Renderer struct {
	pages map[string]*template.Template
	log   *slog.Logger
}

// NewRenderer parses all embedded templates.
func NewRenderer(log *slog.Logger) (*Renderer, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	names := []string{"home", "entry", "about", "search", "category", "edit", "categories"}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, log: log}, nil
}

// Render writes the named page. Flash queues are drained here so a
// message shows exactly once.
func (re *Renderer) Render(w http.ResponseWriter, r *http.Request, name, title string, sidebar sidebar, data any) {
	ctx := r.Context()
	page, ok := re.pages[name]
	if !ok {
		re.log.ErrorContext(ctx, "unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pd := pageData{
		Title:      title,
		Principal:  auth.Principal(ctx),
		Categories: sidebar.Categories,
		Recent:     sidebar.Recent,
		Data:       data,
	}
	if rec, found := session.FromContext(ctx); found {
		pd.CSRFToken = rec.CSRFToken(ctx)
		if flashes, err := rec.PopFlash(ctx, ""); err == nil {
			pd.Flashes = flashes
		}
		if errs, err := rec.PopFlash(ctx, auth.ErrorQueue); err == nil {
			pd.Errors = errs
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.ExecuteTemplate(w, "layout", pd); err != nil {
		re.log.ErrorContext(ctx, "failed to render template", "name", name, "error", err)
	}
}

// sidebar holds the lists shown on every page.
type sidebar struct {
	Categories []string
	Recent     []Entry
}
