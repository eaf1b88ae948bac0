package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/config"
	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/handler"
	"github.com/locvowork/hrms/internal/logger"
	"github.com/locvowork/hrms/internal/repository"
	"github.com/locvowork/hrms/internal/service"
)

type App struct {
	Echo  *echo.Echo
	DB    *sql.DB
	Store *repository.Store

	// Search and AuditMirror stay nil when their backends are not configured.
	Search      *database.ElasticSearchClient
	AuditMirror *database.DatastoreClient

	Timesheets *service.TimesheetService
	Leaves     *service.LeaveService
	Employees  service.EmployeeService
	Projects   *service.ProjectService
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Initialize loads configuration, connects the backends and builds the
// services. It does not mount HTTP routes; see RegisterHTTP.
func (a *App) Initialize(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	if cfg.DB_AUTO_MIGRATE {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.InfoLog(ctx, "Database schema is up to date")
	}
	a.Store = repository.NewStore(db)

	opts := []service.TimesheetOption{}
	leaveOpts := []service.LeaveOption{}
	if cfg.ES_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ES_URL, cfg.ES_INDEX)
		if err != nil {
			return fmt.Errorf("failed to initialize search: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to create search index: %w", err)
		}
		a.Search = es
		opts = append(opts, service.WithIndexer(es))
		logger.InfoLog(ctx, "Timesheet search enabled on index %s", cfg.ES_INDEX)
	}
	if cfg.DATASTORE_PROJECT_ID != "" {
		dc, err := database.NewDatastoreClient(ctx, cfg.DATASTORE_PROJECT_ID)
		if err != nil {
			return fmt.Errorf("failed to initialize datastore: %w", err)
		}
		a.AuditMirror = dc
		opts = append(opts, service.WithAuditMirror(dc))
		leaveOpts = append(leaveOpts, service.WithLeaveAuditMirror(dc))
		logger.InfoLog(ctx, "Audit mirror enabled for project %s", cfg.DATASTORE_PROJECT_ID)
	}

	a.Timesheets = service.NewTimesheetService(a.Store, opts...)
	a.Leaves = service.NewLeaveService(a.Store, leaveOpts...)
	a.Employees = service.NewEmployeeService(a.Store, nil)
	a.Projects = service.NewProjectService(a.Store, nil)
	return nil
}

// RegisterHTTP mounts middleware and routes on the echo instance.
func (a *App) RegisterHTTP() {
	handler.RegisterMiddlewares(a.Echo)
	handler.RegisterRoutes(a.Echo, handler.Handlers{
		Employees:  a.Employees,
		Timesheet:  handler.NewTimesheetHandler(a.Timesheets),
		Leave:      handler.NewLeaveHandler(a.Leaves),
		Employee:   handler.NewEmployeeHandler(a.Employees),
		Project:    handler.NewProjectHandler(a.Projects),
		HealthFunc: a.ping,
	})
}

func (a *App) ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.DB.PingContext(ctx)
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	err := a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and closes the backends.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if a.AuditMirror != nil {
		if err := a.AuditMirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("datastore: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
