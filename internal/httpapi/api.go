// Package httpapi is the HTTP layer: routing, authentication guards,
// request middleware, and JSON handlers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"larrosacamiones.com/internal/auth"
	"larrosacamiones.com/internal/cache"
	"larrosacamiones.com/internal/images"
	"larrosacamiones.com/internal/obs"
	"larrosacamiones.com/internal/vehicles"
)

const apiPrefix = "/api/v1"

// ReadyProbe checks dependencies before the service reports ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API dependencies.
type Options struct {
	Gate       *auth.Gate
	Tokens     *auth.TokenService
	Users      auth.UserStore
	Catalog    vehicles.Service
	Images     *images.Service
	StatsCache *cache.Stats
	Ready      ReadyProbe
	Version    string

	// AllowedOrigins lists CORS origins; empty allows localhost only.
	AllowedOrigins []string
	// StaticDir, when set, serves uploaded files from disk under
	// /static/uploads/. Empty when blobs live in S3.
	StaticDir string

	MaxBodyBytes  int64
	RateBurst     int
	RatePerSecond int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	gate       *auth.Gate
	tokens     *auth.TokenService
	users      auth.UserStore
	catalog    vehicles.Service
	images     *images.Service
	statsCache *cache.Stats
	readyProbe ReadyProbe
	version    string

	allowedOrigins []string
	maxBodyBytes   int64
	rateBurst      int
	ratePerSecond  int
}

func New(opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		gate:           opts.Gate,
		tokens:         opts.Tokens,
		users:          opts.Users,
		catalog:        opts.Catalog,
		images:         opts.Images,
		statsCache:     opts.StatsCache,
		readyProbe:     opts.Ready,
		version:        opts.Version,
		allowedOrigins: opts.AllowedOrigins,
		maxBodyBytes:   opts.MaxBodyBytes,
		rateBurst:      opts.RateBurst,
		ratePerSecond:  opts.RatePerSecond,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 16 << 20
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSecond <= 0 {
		a.ratePerSecond = 10
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc(apiPrefix+"/info", a.Info)

	a.mux.HandleFunc(apiPrefix+"/auth/login", a.handleLogin)
	a.mux.HandleFunc(apiPrefix+"/auth/register", a.handleRegister)
	a.mux.HandleFunc(apiPrefix+"/auth/me", a.handleMe)
	a.mux.HandleFunc(apiPrefix+"/auth/verify-token", a.handleVerifyToken)
	a.mux.HandleFunc(apiPrefix+"/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc(apiPrefix+"/auth/logout", a.handleLogout)
	a.mux.HandleFunc(apiPrefix+"/auth/users", a.handleListUsers)

	a.mux.HandleFunc(apiPrefix+"/vehicles", a.handleVehiclesCollection)
	a.mux.HandleFunc(apiPrefix+"/vehicles/", a.handleVehicleResource)

	a.mux.HandleFunc(apiPrefix+"/admin/dashboard-stats", a.handleDashboardStats)

	a.mux.Handle("/metrics", obs.Handler())

	if opts.StaticDir != "" {
		prefix := "/" + strings.Trim(opts.StaticDir, "/") + "/"
		a.mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir))))
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler wraps the mux with the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h, a.allowedOrigins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
