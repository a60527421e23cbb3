package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tshalif/estimationtoolsplugin/internal/config"
	"github.com/tshalif/estimationtoolsplugin/internal/database"
	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	// The ticket schema belongs to the host; only development databases are migrated here.
	if cfg.Database.Migrate {
		if err := database.Migrate(cfg.Database); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := database.CheckSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	repo := ticket.NewRepository(db, cfg.EstimationTools.CustomFields)
	router := NewRouter(repo, cfg, &utils.SystemClock{})

	srv := &http.Server{
		Handler:      router,
		Addr:         cfg.Server.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, router: router, srv: srv}, nil
}

// NewRouter builds the dependencies, middleware and routes on top of a ticket repository.
func NewRouter(repo ticket.Repository, cfg config.Application, clock utils.Clock) *mux.Router {
	r := mux.NewRouter()
	deps := BuildDependencies(repo, cfg, clock)
	SetupMiddleware(r)
	RegisterRoutes(r, deps)
	return r
}

// Run starts the HTTP server and blocks.
func (a *Application) Run() error {
	defer a.db.Close()
	log.Infof("Starting server on %s", a.srv.Addr)
	return a.srv.ListenAndServe()
}
