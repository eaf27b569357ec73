package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/ai-court-api/api"
	"github.com/linesmerrill/ai-court-api/config"
	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/databases"
	"github.com/linesmerrill/ai-court-api/generation"
	"github.com/linesmerrill/ai-court-api/models"
)

// App stores the router and the trial sessions, so they can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Registry *court.Registry
	Metrics  *api.MetricsCollector

	closers []func(context.Context) error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.Operator{Email: a.Config.OperatorEmail, PasswordHash: a.Config.OperatorPasswordHash}
	m.SetupGoGuardian()

	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}

	r := mux.NewRouter()
	r.Use(a.Metrics.Middleware)

	c := Court{Sessions: a.Registry}
	ws := CourtSocket{Sessions: a.Registry}
	metrics := Metrics{Collector: a.Metrics}
	if a.Registry != nil {
		metrics.Sessions = a.Registry
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	r.HandleFunc("/ws/court/{session_id}", ws.Handler).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/court/start_trial", api.Middleware(http.HandlerFunc(c.StartTrialHandler))).Methods("POST")
	apiCreate.Handle("/court/session/{session_id}", api.Middleware(http.HandlerFunc(c.SessionHandler))).Methods("GET")
	apiCreate.Handle("/court/session/{session_id}", api.Middleware(http.HandlerFunc(c.CloseSessionHandler))).Methods("DELETE")
	apiCreate.Handle("/court/session/{session_id}/evidence", api.Middleware(http.HandlerFunc(c.SubmitEvidenceHandler))).Methods("POST")
	apiCreate.Handle("/court/session/{session_id}/advance", api.Middleware(http.HandlerFunc(c.AdvanceHandler))).Methods("POST")

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(metrics.MetricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by serve to open the session store, build the
// generator and create a router
func (a *App) Initialize(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	gen, err := generation.New(a.Config.Generator, generation.Config{
		BaseURL:     a.Config.LLMBaseURL,
		APIKey:      a.Config.LLMAPIKey,
		Model:       a.Config.LLMModel,
		Temperature: a.Config.LLMTemperature,
	}, a.Config.GenerationTimeout)
	if err != nil {
		return err
	}
	agents := court.NewAgents(gen, court.AgentOptions{Stream: a.Config.LLMStream})

	a.Registry = court.NewRegistry(agents,
		court.WithSessionStore(store),
		court.WithTTL(a.Config.SessionTTL))
	zap.S().Infow("court initialized",
		"store", a.Config.StoreDriver,
		"generator", a.Config.Generator,
		"model", a.Config.LLMModel)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) openStore(ctx context.Context) (court.Store, error) {
	switch a.Config.StoreDriver {
	case "sqlite":
		s, err := databases.OpenSQLite(ctx, a.Config.SQLitePath)
		if err != nil {
			zap.S().Errorw("failed to open sqlite store", "path", a.Config.SQLitePath, "error", err)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		zap.S().Infow("ai-court-api has opened the sqlite store", "path", a.Config.SQLitePath)
		return s, nil

	case "mongo":
		client, err := databases.NewClient(&a.Config)
		if err != nil {
			// if we fail to create a new database client, then kill the pod
			zap.S().Errorw("failed to create new client", "error", err)
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			// if we fail to connect to the database, then kill the pod
			zap.S().Errorw("failed to connect to database", "error", err)
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		if err := client.Ping(ctx); err != nil {
			zap.S().Errorw("failed to ping database", "error", err)
			return nil, err
		}
		zap.S().Info("ai-court-api has connected to the database")
		return databases.NewMongoStore(databases.NewDatabase(&a.Config, client)), nil

	case "memory", "":
		return court.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.Config.StoreDriver)
}

// Close releases the session store
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
