package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"video-toolbox/application/ingest"
	"video-toolbox/application/notification"
	"video-toolbox/application/sharing"
	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"
	domainnotification "video-toolbox/domain/notification"
	"video-toolbox/infrastructure/auth"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Uploader admits uploaded videos
type Uploader interface {
	Upload(ctx context.Context, in ingest.UploadInput) (*asset.Asset, error)
}

// Transcoder derives new assets from existing ones
type Transcoder interface {
	Trim(ctx context.Context, in transcode.TrimInput) (*asset.Asset, error)
	Concatenate(ctx context.Context, in transcode.ConcatInput) (*asset.Asset, error)
}

// LinkIssuer mints share links
type LinkIssuer interface {
	Issue(ctx context.Context, in sharing.IssueInput) (*asset.ShareLink, error)
}

// SharedOpener resolves share tokens to deliverable content
type SharedOpener interface {
	Resolve(ctx context.Context, token string) (*asset.Asset, error)
	Open(ctx context.Context, token string, mode sharing.Mode) (*sharing.Delivery, error)
}

// Notifier emails share links
type Notifier interface {
	Recipients(entries []string) ([]domainnotification.Recipient, error)
	SendShareLink(req notification.ShareRequest) error
}

// TokenVerifier authenticates bearer tokens
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Pinger reports whether the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Notifier may be nil.
type Deps struct {
	Uploader   Uploader
	Transcoder Transcoder
	Issuer     LinkIssuer
	Opener     SharedOpener
	Notifier   Notifier
	Verifier   TokenVerifier
	Store      Pinger
	Logger     *slog.Logger
}

// Options tune request handling
type Options struct {
	PublicBaseURL  string
	MaxUploadBytes int64
}

// API routes
const (
	apiPrefix   = "/api/v1.0"
	sharedRoute = apiPrefix + "/video/shared/"
)

type api struct {
	Deps
	opts Options
	now  func() time.Time
}

// NewRouter builds the HTTP surface
func NewRouter(deps Deps, opts Options) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	a := &api{Deps: deps, opts: opts, now: time.Now}

	router := mux.NewRouter()
	router.HandleFunc("/_health", a.liveness).Methods(http.MethodGet)

	v1 := router.PathPrefix(apiPrefix).Subrouter()
	traced(v1, "/health", a.health, http.MethodGet)
	traced(v1, "/video/shared/{token}", a.shared, http.MethodGet, http.MethodHead)

	secured := v1.NewRoute().Subrouter()
	secured.Use(a.requireAuth)
	traced(secured, "/user/test", a.userTest, http.MethodGet)
	traced(secured, "/video/upload", a.upload, http.MethodPost)
	traced(secured, "/video/trim", a.trim, http.MethodPost)
	traced(secured, "/video/merge", a.merge, http.MethodPost)
	traced(secured, "/video/share", a.share, http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Route not found.", Kind: asset.KindName(asset.ErrNotFound)})
	})

	return a.accessLog(router)
}

// traced registers h under an otelhttp span named after the route template
func traced(r *mux.Router, path string, h http.HandlerFunc, methods ...string) {
	r.Handle(path, otelhttp.NewHandler(h, methods[0]+" "+apiPrefix+path)).Methods(methods...)
}
