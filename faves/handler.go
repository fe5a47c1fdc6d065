package faves

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Format is a response representation chosen from the Accept header.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// DefaultResponseMapping maps the first Accept media type to a Format.
// Anything not listed renders HTML.
var DefaultResponseMapping = map[string]Format{
	"application/json": FormatJSON,
	"text/xml":         FormatXML,
	"application/xml":  FormatXML,
}

// Options holds the settings shared by all three handlers.
type Options struct {
	// Store persists the relationship records. Required.
	Store Store

	// CurrentUser returns the authenticated user of a request. Defaults to
	// UserFromContext on the request context.
	CurrentUser func(r *http.Request) (User, bool)

	// LoginURL, when set, is where unauthenticated HTML requests are
	// redirected, with the original path in the "next" query parameter.
	LoginURL string

	// NextField names the request parameter holding a post-success redirect.
	// Defaults to "next".
	NextField string

	// ResponseMapping overrides DefaultResponseMapping.
	ResponseMapping map[string]Format

	// Templates overrides the embedded default templates.
	Templates *template.Template

	// TemplateName overrides the handler's default template.
	TemplateName string

	// ExtraContext is merged into every template context.
	ExtraContext map[string]any

	// PK extracts the raw target id. Defaults to the "pk" route parameter.
	PK func(r *http.Request) string

	// Username extracts the optional username for listings. Defaults to the
	// "username" route parameter.
	Username func(r *http.Request) string

	// Logger receives handler failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// Config configures a handler for targets of type T.
type Config[T any] struct {
	Options

	// Targets resolves target objects by id. Required.
	Targets Targets[T]

	// Users resolves usernames for public listings. Only ListHandler uses it.
	Users Users

	// ExtraFilter narrows a listing, e.g. to drop hidden targets. Only
	// ListHandler uses it.
	ExtraFilter func([]Favorite[T]) []Favorite[T]
}

// base is the plumbing shared by the handlers.
type base struct {
	opts     Options
	mapping  map[string]Format
	tmpl     *template.Template
	tmplName string
	log      *slog.Logger
}

func newBase(opts Options, defaultTemplate string) (base, error) {
	if opts.Store == nil {
		return base{}, errors.New("faves: Options.Store is required")
	}
	if opts.CurrentUser == nil {
		opts.CurrentUser = func(r *http.Request) (User, bool) {
			return UserFromContext(r.Context())
		}
	}
	if opts.NextField == "" {
		opts.NextField = "next"
	}
	if opts.PK == nil {
		opts.PK = routeParam("pk")
	}
	if opts.Username == nil {
		opts.Username = routeParam("username")
	}

	b := base{
		opts:     opts,
		mapping:  opts.ResponseMapping,
		tmpl:     opts.Templates,
		tmplName: opts.TemplateName,
		log:      opts.Logger,
	}
	if b.mapping == nil {
		b.mapping = DefaultResponseMapping
	}
	if b.tmpl == nil {
		b.tmpl = defaultTemplates
	}
	if b.tmplName == "" {
		b.tmplName = defaultTemplate
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	return b, nil
}

// routeParam reads a chi URL parameter, falling back to the standard
// library's path values.
func routeParam(name string) func(r *http.Request) string {
	return func(r *http.Request) string {
		if v := chi.URLParam(r, name); v != "" {
			return v
		}
		return r.PathValue(name)
	}
}

// format picks the response format from the first Accept entry.
func (b *base) format(r *http.Request) Format {
	accept := r.Header.Get("Accept")
	first, _, _ := strings.Cut(accept, ",")
	mediaType, _, _ := strings.Cut(first, ";")
	if f, ok := b.mapping[strings.TrimSpace(strings.ToLower(mediaType))]; ok {
		return f
	}
	return FormatHTML
}

// requireUser returns the acting user or ErrAuthenticationRequired.
func (b *base) requireUser(r *http.Request) (User, error) {
	u, ok := b.opts.CurrentUser(r)
	if !ok {
		return User{}, ErrAuthenticationRequired
	}
	return u, nil
}

// parsePK reads and validates the target id of the request.
func (b *base) parsePK(r *http.Request) (int64, error) {
	raw := b.opts.PK(r)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// IsLocalPath reports whether next is an absolute path on the current host,
// safe to use as a redirect target. Browsers treat a backslash like a slash,
// so any backslash is rejected.
func IsLocalPath(next string) bool {
	if len(next) == 0 || next[0] != '/' {
		return false
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return false
	}
	return !strings.Contains(next, ":/") && !strings.ContainsRune(next, '\\')
}

// redirectNext answers with a redirect when the request names a local next
// location. It reports whether it did so.
func (b *base) redirectNext(w http.ResponseWriter, r *http.Request) bool {
	next := r.FormValue(b.opts.NextField)
	if !IsLocalPath(next) {
		return false
	}
	http.Redirect(w, r, next, http.StatusFound)
	return true
}

// fail reports err to the client in the negotiated format.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	format := b.format(r)

	var (
		status  int
		message string
	)
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		if b.opts.LoginURL != "" && format == FormatHTML {
			target := b.opts.LoginURL + "?" + url.Values{"next": {r.URL.Path}}.Encode()
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		status, message = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, ErrInvalidID):
		status, message = http.StatusBadRequest, "Invalid identifier"
	default:
		b.log.Error("favorites handler failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		status, message = http.StatusInternalServerError, "Internal server error"
	}

	if status != http.StatusInternalServerError {
		b.log.Debug("favorites request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeFailure(w, format, status, message)
}

// context builds a template context from the handler-specific values. Keys
// in ExtraContext take precedence.
func (b *base) context(values map[string]any) map[string]any {
	ctx := make(map[string]any, len(values)+len(b.opts.ExtraContext))
	for k, v := range values {
		ctx[k] = v
	}
	for k, v := range b.opts.ExtraContext {
		ctx[k] = v
	}
	return ctx
}
