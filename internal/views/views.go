// Package views renders the server-side pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageOverview = "overview"
	PageTour     = "tour"
	PageLogin    = "login"
	PageSignup   = "signup"
	PageAccount  = "account"
	PageError    = "error"
)

var pages = []string{PageOverview, PageTour, PageLogin, PageSignup, PageAccount, PageError}

// Alerts shown through the ?alert= query parameter.
var alerts = map[string]string{
	"booking": "Your booking was successful! Please check your email for a confirmation. " +
		"If your booking doesn't show up here immediately, please come back later.",
}

// AlertFor maps an alert key to its banner text.
func AlertFor(key string) string { return alerts[key] }

// Page is the data every template receives.
type Page struct {
	Title   string
	User    *domain.User
	Alert   string
	Tours   []domain.Tour
	Tour    *domain.Tour
	Message string
}

var funcs = template.FuncMap{
	"firstName": func(name string) string {
		if f := strings.Fields(name); len(f) > 0 {
			return f[0]
		}
		return name
	},
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(s, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page with the given status.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", name))
		http.Error(w, "Something went wrong!", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("render page failed", slog.String("page", name), slog.String("error", err.Error()))
		http.Error(w, "Something went wrong!", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
