package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll/internal/repository/postgresql"
	holidayService "github.com/cmlabs-hris/hris-payroll/internal/service/holiday"
	payrollService "github.com/cmlabs-hris/hris-payroll/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	loc := cfg.Payroll.Location

	payPeriodRepo := postgresql.NewPayPeriodRepository(db)
	payCalculationRepo := postgresql.NewPayCalculationRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	timeClockRepo := postgresql.NewTimeClockRepository(db, loc)
	holidayRepo := postgresql.NewHolidayRepository(db)
	txManager := postgresql.NewTxManager(db)
	runLocker := postgresql.NewAdvisoryRunLocker(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	payrollMetrics := metrics.NewPayrollMetrics(registry)

	hub := sse.NewHub()
	payrollMetrics.TrackSubscribers(hub.SubscriberCount)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	eligibility := payrollService.NewHolidayEligibility(employeeRepo, timeClockRepo, loc)
	calculator := payrollService.NewCalculator(holidayRepo, eligibility, loc)
	periodSvc := payrollService.NewPayPeriodService(payPeriodRepo)
	payrollSvc := payrollService.NewPayrollService(
		payPeriodRepo,
		payCalculationRepo,
		employeeRepo,
		timeClockRepo,
		calculator,
		txManager,
		runLocker,
		hub,
		payrollMetrics,
	)
	holidaySvc := holidayService.NewHolidayService(holidayRepo)

	scheduler := cron.NewScheduler()
	cron.NewPayrollJobs(payrollSvc).RegisterJobs(scheduler, cfg.Payroll.RecoveryInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Metrics:        payrollMetrics.Handler(),
		},
		JWTService,
		appHTTP.NewPayrollHandler(periodSvc, payrollSvc),
		appHTTP.NewHolidayHandler(holidaySvc),
		appHTTP.NewNotificationHandler(hub),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for handlers, and event streams never finish on their own
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "payroll_timezone", cfg.Payroll.TimeZone)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(app config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(app.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)
}
