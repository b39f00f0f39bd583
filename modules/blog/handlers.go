package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"miniblog/modules/auth"
	"miniblog/pkg/session"
)

// Config holds the blog settings read from the environment.
type Config struct {
	RecentLimit int           `env:"BLOG_RECENT_LIMIT" envDefault:"7"`
	CacheTTL    time.Duration `env:"BLOG_CACHE_TTL" envDefault:"1h"`
}

// Handler serves the public blog pages and the admin screens.
type Handler struct {
	repo        *Repository
	cache       *Cache
	renderer    *Renderer
	recentLimit int
	log         *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(repo *Repository, cache *Cache, renderer *Renderer, cfg Config, log *slog.Logger) *Handler {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 7
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		repo:        repo,
		cache:       cache,
		renderer:    renderer,
		recentLimit: cfg.RecentLimit,
		log:         log,
	}
}

// Router returns the blog routes. Admin screens sit behind the
// principal check.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.home)
	r.Get("/about", h.about)
	r.Get("/entry/{id}", h.entry)
	r.Get("/category/{name}", h.category)
	r.Get("/search", h.search)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/add", h.addForm)
		r.Post("/add", h.add)
		r.Get("/edit/{id}", h.editForm)
		r.Post("/edit/{id}", h.edit)
		r.Post("/delete/{id}", h.delete)
		r.Get("/categories", h.categories)
		r.Post("/categories", h.addCategory)
		r.Post("/categories/delete", h.deleteCategory)
	})
	return r
}

func (h *Handler) sidebar(r *http.Request) sidebar {
	ctx := r.Context()
	var sb sidebar
	var err error
	sb.Categories, err = h.cache.Categories(ctx, h.repo.ListCategories)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to load categories", "error", err)
	}
	sb.Recent, err = h.cache.RecentEntries(ctx, func(ctx context.Context) ([]Entry, error) {
		return h.repo.RecentEntries(ctx, h.recentLimit)
	})
	if err != nil {
		h.log.ErrorContext(ctx, "failed to load recent entries", "error", err)
	}
	return sb
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.ErrorContext(r.Context(), msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListEntries(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list entries", err)
		return
	}
	h.renderer.Render(w, r, "home", "Home", h.sidebar(r), entries)
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "about", "About", h.sidebar(r), nil)
}

func (h *Handler) entry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, err := h.repo.GetEntry(r.Context(), id)
	if errors.Is(err, ErrEntryNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to get entry", err)
		return
	}
	h.renderer.Render(w, r, "entry", entry.Title, h.sidebar(r), entry)
}

type categoryPage struct {
	Name    string
	Entries []Entry
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sb := h.sidebar(r)
	known := false
	for _, c := range sb.Categories {
		if c == name {
			known = true
			break
		}
	}
	if !known {
		http.NotFound(w, r)
		return
	}
	entries, err := h.repo.EntriesByCategory(r.Context(), name)
	if err != nil {
		h.serverError(w, r, "failed to list category entries", err)
		return
	}
	h.renderer.Render(w, r, "category", name, sb, categoryPage{Name: name, Entries: entries})
}

type searchPage struct {
	Query   string
	Entries []Entry
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := searchPage{Query: query}
	if query != "" {
		entries, err := h.repo.SearchEntries(r.Context(), query)
		if err != nil {
			h.serverError(w, r, "failed to search entries", err)
			return
		}
		page.Entries = entries
	}
	h.renderer.Render(w, r, "search", "Search", h.sidebar(r), page)
}

// editPage backs both the add and edit screens.
type editPage struct {
	Form   *EntryForm
	Action string
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "edit", "New entry", h.sidebar(r),
		editPage{Form: &EntryForm{}, Action: "/add"})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sb := h.sidebar(r)
	form := ParseEntryForm(r, sb.Categories)
	if !form.Valid() {
		h.renderer.Render(w, r, "edit", "New entry", sb, editPage{Form: form, Action: "/add"})
		return
	}

	entry, err := h.repo.CreateEntry(ctx, Entry{
		Title:        form.Title,
		Text:         form.Text,
		EntryTime:    time.Now(),
		CategoryName: form.Category,
	})
	if errors.Is(err, ErrDuplicateTitle) {
		form.Errors = append(form.Errors, duplicateTitleError())
		h.renderer.Render(w, r, "edit", "New entry", sb, editPage{Form: form, Action: "/add"})
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to create entry", err)
		return
	}

	h.cache.Invalidate(ctx)
	h.flash(r, "Entry created.")
	http.Redirect(w, r, fmt.Sprintf("/entry/%d", entry.ID), http.StatusSeeOther)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	entry, err := h.repo.GetEntry(r.Context(), id)
	if errors.Is(err, ErrEntryNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to get entry", err)
		return
	}
	form := &EntryForm{Title: entry.Title, Text: entry.Text, Category: entry.CategoryName}
	h.renderer.Render(w, r, "edit", "Edit entry", h.sidebar(r),
		editPage{Form: form, Action: fmt.Sprintf("/edit/%d", entry.ID)})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	sb := h.sidebar(r)
	action := fmt.Sprintf("/edit/%d", id)
	form := ParseEntryForm(r, sb.Categories)
	if !form.Valid() {
		h.renderer.Render(w, r, "edit", "Edit entry", sb, editPage{Form: form, Action: action})
		return
	}

	err = h.repo.UpdateEntry(ctx, Entry{
		ID:           id,
		Title:        form.Title,
		Text:         form.Text,
		CategoryName: form.Category,
	})
	switch {
	case errors.Is(err, ErrEntryNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, ErrDuplicateTitle):
		form.Errors = append(form.Errors, duplicateTitleError())
		h.renderer.Render(w, r, "edit", "Edit entry", sb, editPage{Form: form, Action: action})
		return
	case err != nil:
		h.serverError(w, r, "failed to update entry", err)
		return
	}

	h.cache.Invalidate(ctx)
	h.flash(r, "Entry updated.")
	http.Redirect(w, r, fmt.Sprintf("/entry/%d", id), http.StatusSeeOther)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	err = h.repo.DeleteEntry(ctx, id)
	if errors.Is(err, ErrEntryNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to delete entry", err)
		return
	}
	h.cache.Invalidate(ctx)
	h.flash(r, "Entry deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type categoriesPage struct {
	Form *CategoryForm
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "categories", "Categories", h.sidebar(r),
		categoriesPage{Form: &CategoryForm{}})
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := ParseCategoryForm(r)
	if !form.Valid() {
		h.renderer.Render(w, r, "categories", "Categories", h.sidebar(r), categoriesPage{Form: form})
		return
	}
	err := h.repo.CreateCategory(ctx, form.Name)
	if errors.Is(err, ErrDuplicateCategory) {
		h.flashError(r, "A category with that name already exists.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to create category", err)
		return
	}
	h.cache.Invalidate(ctx)
	h.flash(r, "Category created.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PostFormValue("name")
	err := h.repo.DeleteCategory(ctx, name)
	switch {
	case errors.Is(err, ErrCategoryInUse):
		h.flashError(r, "Move its entries elsewhere before deleting this category.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	case errors.Is(err, ErrCategoryNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.serverError(w, r, "failed to delete category", err)
		return
	}
	h.cache.Invalidate(ctx)
	h.flash(r, "Category deleted.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (h *Handler) flash(r *http.Request, text string) {
	ctx := r.Context()
	if rec, ok := session.FromContext(ctx); ok {
		if err := rec.Flash(ctx, text, "", false); err != nil {
			h.log.WarnContext(ctx, "failed to queue flash", "error", err)
		}
	}
}

func (h *Handler) flashError(r *http.Request, text string) {
	ctx := r.Context()
	if rec, ok := session.FromContext(ctx); ok {
		if err := rec.Flash(ctx, text, auth.ErrorQueue, false); err != nil {
			h.log.WarnContext(ctx, "failed to queue flash", "error", err)
		}
	}
}
