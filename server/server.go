package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dekarrin/earley/server/accounts"
	"github.com/dekarrin/earley/server/api"
	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/grammars"
	"github.com/dekarrin/earley/server/middle"
	"github.com/dekarrin/earley/server/sessions"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is a running instance of the constraint server: the account/auth
// backend, grammar registry, and session registry, wired into a chi router.
//
//	- POST   /api/v1/login              - log in, get a JWT
//	- DELETE /api/v1/login/{id}         - log out
//	- POST   /api/v1/tokens             - issue a fresh JWT for the caller
//	- GET    /api/v1/info               - server/core version info
//	- POST   /api/v1/users              - create a user (admin)
//	- GET    /api/v1/users              - list users (admin)
//	- GET    /api/v1/users/{id}         - get a user (self or admin)
//	- PATCH  /api/v1/users/{id}         - update a user (self or admin)
//	- PUT    /api/v1/users/{id}         - replace/create a user (admin)
//	- DELETE /api/v1/users/{id}         - delete a user (self or admin)
//	- POST   /api/v1/grammars           - register a compiled grammar
//	- GET    /api/v1/grammars           - list every registered grammar
//	- GET    /api/v1/grammars/{name}    - list versions of a grammar
//	- DELETE /api/v1/grammars/{name}/{version} - delete a grammar version
//	- POST   /api/v1/sessions           - open a constrained-generation session
//	- GET    /api/v1/sessions           - list the caller's sessions
//	- GET    /api/v1/sessions/{id}      - get a session's status
//	- POST   /api/v1/sessions/{id}/tokens  - feed tokens to a session
//	- GET    /api/v1/sessions/{id}/bias     - compute the next-token bias mask
//	- GET    /api/v1/sessions/{id}/captures - get a session's named captures
//	- GET    /api/v1/sessions/{id}/stats    - get a session's work counters
//	- GET    /api/v1/sessions/{id}/model-variables - get a session's scanned model variables
//	- GET    /api/v1/sessions/{id}/gen-grammar - check for a pending nested-grammar prediction
//	- POST   /api/v1/sessions/{id}/gen-grammar - splice in a nested-grammar completion
//	- DELETE /api/v1/sessions/{id}      - close a session
type Server struct {
	db     dao.Store
	router chi.Router

	accounts accounts.Service
	grammars grammars.Service
	sessions sessions.Service
}

// New builds a Server from cfg, connecting to the configured persistence
// layer and wiring every route. The caller must eventually call Close.
func New(cfg Config) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}

	srv := &Server{
		db:       db,
		accounts: accounts.Service{DB: db},
		grammars: grammars.Service{DB: db},
	}
	srv.sessions = sessions.Service{DB: db, Grammars: srv.grammars, Reg: sessions.NewRegistry()}

	a := api.API{
		Backend:     srv.accounts,
		Grammars:    srv.grammars,
		Sessions:    srv.sessions,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	srv.router = srv.buildRouter(a, cfg)

	return srv, nil
}

func (s *Server) buildRouter(a api.API, cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	requireAuth := middle.RequireAuth(s.db.Users(), cfg.TokenSecret, cfg.UnauthDelay(), dao.User{})
	optionalAuth := middle.OptionalAuth(s.db.Users(), cfg.TokenSecret, cfg.UnauthDelay(), dao.User{})

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.With(optionalAuth).Get("/info", a.HTTPGetInfo())

		r.With(optionalAuth).Post("/login", a.HTTPCreateLogin())
		r.With(requireAuth).Delete("/login/{id}", a.HTTPDeleteLogin())
		r.With(requireAuth).Post("/tokens", a.HTTPCreateToken())

		r.With(requireAuth).Get("/users", a.HTTPGetAllUsers())
		r.With(optionalAuth).Post("/users", a.HTTPCreateUser())
		r.With(requireAuth).Get("/users/{id}", a.HTTPGetUser())
		r.With(requireAuth).Patch("/users/{id}", a.HTTPUpdateUser())
		r.With(requireAuth).Put("/users/{id}", a.HTTPReplaceUser())
		r.With(requireAuth).Delete("/users/{id}", a.HTTPDeleteUser())

		r.With(requireAuth).Post("/grammars", a.HTTPCreateGrammar())
		r.With(requireAuth).Get("/grammars", a.HTTPGetAllGrammars())
		r.With(requireAuth).Get("/grammars/{name}", a.HTTPGetGrammarVersions())
		r.With(requireAuth).Delete("/grammars/{name}/{version}", a.HTTPDeleteGrammar())

		r.With(requireAuth).Post("/sessions", a.HTTPCreateSession())
		r.With(requireAuth).Get("/sessions", a.HTTPGetAllSessions())
		r.With(requireAuth).Get("/sessions/{id}", a.HTTPGetSession())
		r.With(requireAuth).Post("/sessions/{id}/tokens", a.HTTPApplyTokens())
		r.With(requireAuth).Get("/sessions/{id}/bias", a.HTTPComputeBias())
		r.With(requireAuth).Get("/sessions/{id}/captures", a.HTTPGetCaptures())
		r.With(requireAuth).Get("/sessions/{id}/stats", a.HTTPGetStats())
		r.With(requireAuth).Get("/sessions/{id}/model-variables", a.HTTPGetModelVariables())
		r.With(requireAuth).Get("/sessions/{id}/gen-grammar", a.HTTPGetGenGrammar())
		r.With(requireAuth).Post("/sessions/{id}/gen-grammar", a.HTTPScanGenGrammar())
		r.With(requireAuth).Delete("/sessions/{id}", a.HTTPCloseSession())
	})

	return r
}

// CreateUser is a convenience passthrough to the account backend, used by
// cmd/earleyd to seed the initial admin account at startup.
func (s *Server) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	return s.accounts.CreateUser(ctx, username, password, email, role)
}

// ServeForever binds to addr:port and serves requests until the process is
// killed or Close is called from another goroutine.
func (s *Server) ServeForever(addr string, port int) error {
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", addr, port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("INFO  listening on %s", httpSrv.Addr)
	err := httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases the underlying persistence connection.
func (s *Server) Close() error {
	return s.db.Close()
}
