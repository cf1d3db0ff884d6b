// Package server wires configuration, storage, services and transports
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/confkeeper/internal/blob"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/confkeeper/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *httpapi.Server
	grpc   *gs.GRPCServer
}

// NewApp opens the store, applies migrations and builds both transports.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(out, c.LogLevel)

	repos, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("migrations: %w", err)
	}

	uploads, err := blob.Open(ctx, c)
	if err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("upload store init error: %w", err)
	}

	return newApp(c, logger, repos, uploads), nil
}

func newApp(c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager, uploads blob.Store) *App {
	svc := httpapi.Services{
		Identity:    services.NewIdentityService(repos, c, logger),
		Conferences: services.NewConferenceService(repos, c, logger),
		Sessions:    services.NewSessionService(repos, c, logger),
		Attendees:   services.NewAttendeeService(repos, c, logger),
		Payments:    services.NewPaymentService(repos, c, logger, nil),
		Reports:     services.NewReportService(repos, c, logger),
		Uploads:     services.NewUploadService(uploads, logger),
	}

	var metrics *httpapi.Metrics
	if c.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = httpapi.NewMetrics(reg)
	}

	app := &App{
		config: c,
		logger: logger,
		repos:  repos,
		http:   httpapi.NewServer(c, logger, svc, metrics),
	}
	if c.GRPCAddr != "" {
		app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger, repos)
	}
	return app
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or either transport fails, then closes
// the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment, "store", app.config.StoreDriver)

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancelFunc()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server", "error", err)
			fail(err)
		}
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.grpc.Run(ctx); err != nil {
				app.logger.Error(ctx, "grpc server", "error", err)
				fail(err)
			}
		}()
	}

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.repos.Close(closeCtx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	app.logger.Info(ctx, "App stopped")
	return errors.Join(errs...)
}
