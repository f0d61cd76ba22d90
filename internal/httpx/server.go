package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/auth"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/metrics"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// API holds the handlers' collaborators. Metrics may be nil.
type API struct {
	Menu    *menu.Service
	Cart    *cart.Service
	Roles   *roles.Directory
	Orders  *orders.Engine
	Gate    *access.Gate
	Auth    *auth.Authenticator
	Metrics *metrics.Metrics
	Log     *logrus.Entry
}

func NewRouter(api *API) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(api.Log), middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if api.Metrics != nil {
		r.Use(api.Metrics.Middleware)
	}
	r.Use(middleware.Timeout(15 * time.Second))

	// chi rejects Use after the first route
	if api.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", api.Metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(api.Auth.Middleware(api.fail), recordCaller)
		api.registerCatalog(r)
		api.registerGroups(r)
		api.registerCart(r)
		api.registerOrders(r)
	})
	return r
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(a.Log, w, r, err)
}

// authorize runs the gate for the request's caller and writes the denial
// itself; handlers return when ok is false.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, req access.Requirement) (*access.Caller, bool) {
	c, _ := access.CallerFrom(r.Context())
	if err := a.Gate.Authorize(r.Context(), c, req); err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return c, true
}
