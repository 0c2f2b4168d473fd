package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/session"
)

// GuardFunc authorizes a request before its handler runs. Returning an
// HTTPError selects the response status; any other error maps to 403.
type GuardFunc func(r *http.Request) error

// CapabilitiesFunc resolves the caller's capabilities from a request.
type CapabilitiesFunc func(r *http.Request) session.Capabilities

// OwnerFunc resolves the draft owner for a request.
type OwnerFunc func(r *http.Request) string

// Options configures the HTTP service.
type Options struct {
	Logger       *zap.Logger
	Drafts       session.DraftStore
	Pages        *render.PageRenderer
	Observer     Observer
	Metrics      http.Handler
	Palette      sections.Palette
	Locale       string
	IDFunc       func() string
	Capabilities CapabilitiesFunc
	Owner        OwnerFunc
	// EditorGuard protects the section editor routes. It defaults to
	// RequireAdmin over Capabilities.
	EditorGuard GuardFunc
	// DraftGuard protects the draft routes. It defaults to
	// RequireAuthenticated over Capabilities.
	DraftGuard     GuardFunc
	BundleTTL      time.Duration
	EditorTTL      time.Duration
	AllowedOrigins []string
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Logger:       zap.NewNop(),
		Observer:     nopObserver{},
		Palette:      sections.DefaultPalette,
		Locale:       "th",
		Capabilities: HeaderCapabilities,
		Owner:        HeaderOwner,
		BundleTTL:    30 * time.Second,
		EditorTTL:    30 * time.Minute,
	}
}

// NewOptions applies fns over DefaultOptions and fills anything left empty.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if len(opts.Palette) == 0 {
		opts.Palette = sections.DefaultPalette
	}
	if opts.Locale == "" {
		opts.Locale = "th"
	}
	if opts.Capabilities == nil {
		opts.Capabilities = HeaderCapabilities
	}
	if opts.Owner == nil {
		opts.Owner = HeaderOwner
	}
	if opts.EditorGuard == nil {
		opts.EditorGuard = RequireAdmin(opts.Capabilities)
	}
	if opts.DraftGuard == nil {
		opts.DraftGuard = RequireAuthenticated(opts.Capabilities)
	}
	if opts.BundleTTL < 0 {
		opts.BundleTTL = 0
	}
	if opts.EditorTTL < 0 {
		opts.EditorTTL = 0
	}
	if opts.AllowedOrigins != nil {
		opts.AllowedOrigins = append([]string{}, opts.AllowedOrigins...)
	}
	return opts
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithDrafts(store session.DraftStore) OptionFn {
	return func(o *Options) {
		o.Drafts = store
	}
}

func WithPages(pages *render.PageRenderer) OptionFn {
	return func(o *Options) {
		o.Pages = pages
	}
}

// WithObserver records preview, drop and request metrics. metrics.Metrics
// satisfies Observer.
func WithObserver(observer Observer) OptionFn {
	return func(o *Options) {
		o.Observer = observer
	}
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) OptionFn {
	return func(o *Options) {
		o.Metrics = handler
	}
}

func WithPalette(p sections.Palette) OptionFn {
	return func(o *Options) {
		o.Palette = p
	}
}

func WithLocale(locale string) OptionFn {
	return func(o *Options) {
		o.Locale = locale
	}
}

// WithIDFunc overrides the generator used for editor session and section
// ids.
func WithIDFunc(fn func() string) OptionFn {
	return func(o *Options) {
		o.IDFunc = fn
	}
}

func WithCapabilities(fn CapabilitiesFunc) OptionFn {
	return func(o *Options) {
		o.Capabilities = fn
	}
}

func WithOwner(fn OwnerFunc) OptionFn {
	return func(o *Options) {
		o.Owner = fn
	}
}

func WithEditorGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.EditorGuard = guard
	}
}

func WithDraftGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.DraftGuard = guard
	}
}

// WithBundleTTL sets how long loaded template bundles are reused. Zero
// disables caching.
func WithBundleTTL(ttl time.Duration) OptionFn {
	return func(o *Options) {
		o.BundleTTL = ttl
	}
}

// WithEditorTTL sets how long an idle editor session is kept. Zero keeps
// sessions until they are closed.
func WithEditorTTL(ttl time.Duration) OptionFn {
	return func(o *Options) {
		o.EditorTTL = ttl
	}
}

// WithAllowedOrigins enables CORS for the listed origins.
func WithAllowedOrigins(origins ...string) OptionFn {
	return func(o *Options) {
		o.AllowedOrigins = append([]string{}, origins...)
	}
}
