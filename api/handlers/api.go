package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/queue-tracker-api/api"
	"github.com/linesmerrill/queue-tracker-api/api/scheduler"
	"github.com/linesmerrill/queue-tracker-api/config"
	"github.com/linesmerrill/queue-tracker-api/databases"
	"github.com/linesmerrill/queue-tracker-api/models"
	"github.com/linesmerrill/queue-tracker-api/relay"
)

const (
	migrationTimeout = time.Minute
	shutdownTimeout  = 5 * time.Second
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router *mux.Router
	// Handler is Router wrapped with CORS and is what the server should serve
	Handler http.Handler
	Config  config.Config

	dbHelper  databases.DatabaseHelper
	client    databases.ClientHelper
	hub       *relay.Hub
	relay     *relay.Relay
	limiter   *api.RateLimiter
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	states := databases.NewStateDatabase(a.dbHelper)
	logs := databases.NewLogDatabase(a.dbHelper)
	policy := api.NewOriginPolicy(a.Config.FrontendURL, a.Config.AllowedOrigins)

	a.hub = relay.NewHub()
	a.relay = relay.New(states, logs, a.hub, relay.Options{
		AccessKey:  a.Config.TeamAccessKey,
		RateMax:    a.Config.SocketRateLimitMax,
		RateWindow: a.Config.SocketRateLimitWindow,
	})
	a.limiter = api.NewRateLimiter(a.Config.HTTPRateLimitWindow, a.Config.HTTPRateLimitMax)

	l := Logs{DB: logs}
	admin := api.RequireAdmin(a.Config.JWTSecret, a.Config.EnforceLogDownloadAuth)

	r := mux.NewRouter()
	r.Use(api.RequestLogger, a.limiter.Middleware)

	r.HandleFunc("/", rootHandler).Methods("GET")
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	r.Handle("/download-logs/{date}", admin(http.HandlerFunc(l.DownloadLogsHandler))).Methods("GET")
	r.Handle("/download-all-logs", admin(http.HandlerFunc(l.DownloadAllLogsHandler))).Methods("GET")

	r.Handle(api.WebSocketPath, relay.NewWebSocketHandler(a.hub, a.relay, policy.CheckRequest, a.Config.MaxMessageSize)).Methods("GET")

	a.Handler = api.CORS(policy).Handler(r)
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)

	ctx, cancel := databases.WithQueryTimeout(context.Background())
	defer cancel()
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	if err = client.Ping(ctx); err != nil {
		zap.S().Errorw("failed to ping database", "error", err)
		return err
	}
	zap.S().Infow("queue-tracker-api has connected to the database", "database", a.Config.DatabaseName)

	if err = a.prepareStore(); err != nil {
		return err
	}

	// initialize api router
	a.initializeRoutes()

	a.scheduler = scheduler.NewScheduler(a.limiter, 2*a.Config.HTTPRateLimitWindow)
	return a.scheduler.Start()
}

// prepareStore creates indexes, upgrades a state document left by the previous server
// and imports the legacy data file. A failed import is logged and retried on the next
// start since the file is only renamed on success.
func (a *App) prepareStore() error {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	states := databases.NewStateDatabase(a.dbHelper)
	logs := databases.NewLogDatabase(a.dbHelper)
	if err := states.EnsureIndexes(ctx); err != nil {
		zap.S().Errorw("failed to create state indexes", "error", err)
		return err
	}
	if err := logs.EnsureIndexes(ctx); err != nil {
		zap.S().Errorw("failed to create log indexes", "error", err)
		return err
	}

	upgraded, err := databases.UpgradeLegacyState(ctx, a.dbHelper)
	if err != nil {
		zap.S().Errorw("failed to upgrade legacy global state", "error", err)
		return err
	}
	if upgraded {
		zap.S().Info("legacy global state upgraded")
	}

	if err := databases.Migrate(ctx, a.Config.LegacyDataFile, states, logs); err != nil {
		zap.S().Warnw("legacy data migration failed", "path", a.Config.LegacyDataFile, "error", err)
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Shutdown closes every websocket, drains pending writes and disconnects from the database.
// The http server must already have stopped accepting requests.
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.hub != nil {
		if err := a.hub.Shutdown(shutdownTimeout); err != nil {
			zap.S().Warnw("websocket shutdown incomplete", "error", err)
		}
	}
	if a.relay != nil {
		a.relay.Close()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Errorw("failed to disconnect from database", "error", err)
		}
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Queue Tracker API is Live!")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
