package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed all:static
var staticFS embed.FS

//go:embed templates/*.html
var templatesFS embed.FS

// PageTemplate is the name of the dashboard page template.
const PageTemplate = "index.html"

type Router interface {
	Mount(pattern string, handler http.Handler)
}

// StaticApp serves the stylesheet and images under /static/.
func StaticApp() (*WebApp, error) {
	return NewWebApp("static", staticFS, "static", "/static/")
}

// Templates parses the page templates with the given functions.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New(PageTemplate).Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

type WebApp struct {
	name    string
	l       *slog.Logger
	fs      fs.FS
	urlBase string
}

func NewWebApp(name string, app fs.FS, subDir string, urlBase string) (*WebApp, error) {
	subFS, err := fs.Sub(app, subDir)
	if err != nil {
		return nil, err
	}

	// Ensure urlBase starts with / and ends with /
	urlBase = strings.TrimSuffix(urlBase, "/")
	urlBase = strings.TrimPrefix(urlBase, "/")
	urlBase = "/" + urlBase + "/"

	return &WebApp{
		name:    name,
		fs:      subFS,
		urlBase: urlBase,
		l:       slog.Default().With(slog.String("component", name)),
	}, nil
}

func (wa *WebApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	// Try the exact file first, then the html variants.
	for _, suffix := range []string{"", ".html", "/index.html"} {
		altPath := strings.TrimSuffix(path, "/") + suffix

		f, err := fs.Stat(wa.fs, altPath)
		if err != nil || f.IsDir() {
			continue
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFileFS(w, r, wa.fs, altPath)

		return
	}

	wa.l.Warn("File not found", slog.String("path", path))
	http.NotFound(w, r)
}

// Handler returns an http.Handler that serves the WebApp at the given path.
func (wa *WebApp) Handler(path string) http.Handler {
	return http.StripPrefix(path, wa)
}

// Register mounts the WebApp on the given router at its base URL.
func (wa *WebApp) Register(mux Router, l *slog.Logger) {
	wa.l = l.With(slog.String("app", wa.name), slog.String("urlBase", wa.urlBase), slog.String("component", "file-server"))
	wa.l.Info("Registering web app")

	mux.Mount(strings.TrimSuffix(wa.urlBase, "/"), wa.Handler(wa.urlBase))
}
