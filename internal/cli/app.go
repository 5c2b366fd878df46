package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/jortega/fuelwatch/internal/api"
	"github.com/jortega/fuelwatch/internal/config"
	"github.com/jortega/fuelwatch/internal/logging"
	"github.com/jortega/fuelwatch/internal/models"
	"github.com/jortega/fuelwatch/internal/query"
	"github.com/jortega/fuelwatch/internal/session"

	_ "modernc.org/sqlite"
)

// sessionController is the slice of session.Controller the CLI needs.
// Tests can provide a lightweight stub.
type sessionController interface {
	Init(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context) error
	Snapshot() session.Snapshot
	OnSessionExpired(fn func(string))
}

// stationBrowser is the slice of query.StationsService the CLI needs.
type stationBrowser interface {
	List(ctx context.Context, filters api.StationFilters, page, pageSize int) (models.PaginatedResult[models.Station], error)
	Refresh(ctx context.Context, filters api.StationFilters, page, pageSize int) (models.PaginatedResult[models.Station], error)
}

type App struct {
	config    *config.Config
	log       logging.Logger
	db        *sql.DB
	apiClient api.Client
	session   sessionController
	cache     *query.Cache
	stations  stationBrowser
	reader    *bufio.Reader

	// current browsing position
	filters api.StationFilters
	page    int
	current models.PaginatedResult[models.Station]
	hasPage bool
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	log := logging.New(os.Stderr, level)

	db, err := session.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, log)

	store := session.NewSQLiteStore(db)
	ctrl := session.NewController(apiClient, store, log)

	cache := query.New(c.StaleTime, c.GCTime, log)
	stations := query.NewStationsService(cache, apiClient, ctrl, log)

	return &App{
		config:    c,
		log:       log,
		db:        db,
		apiClient: apiClient,
		session:   ctrl,
		cache:     cache,
		stations:  stations,
		reader:    bufio.NewReader(os.Stdin),
		page:      1,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

// getStatus renders the prompt decoration: "(username)" when a session is
// active, empty otherwise.
func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	if snap.IsAuthenticated && snap.User != nil {
		return "(" + snap.User.Username + ")"
	}
	return ""
}

// Run restores the previous session, starts cache eviction, and enters the
// REPL. It blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	defer a.apiClient.Close()

	a.session.OnSessionExpired(func(msg string) {
		printlnFn(msg)
	})

	if err := a.session.Init(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}

	go a.cache.StartGC(ctx, a.config.GCTime)

	printlnFn("FuelWatch CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
