package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/config"
	appHTTP "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/handler/http"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/facematch"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/sse"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/storage"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/repository/postgresql"
	attendanceService "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/attendance"
	serviceAuth "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/auth"
	employeeService "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/file"
	financeService "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/finance"
	payrollService "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/payroll"
	shiftService "github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/shift"
	"golang.org/x/sync/errgroup"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "coffee-attendance"),
		slog.String("env", cfg.App.Env),
	)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.WithQueryLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.Migrate(ctx, db); err != nil {
			return err
		}
	}

	geoValidator, err := geo.NewValidator(cfg.Sites...)
	if err != nil {
		return fmt.Errorf("failed to configure sites: %w", err)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}

	// Repositories
	txManager := postgresql.NewTxManager(db)
	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	faceRepo := postgresql.NewFaceProfileRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	exceptionRepo := postgresql.NewExceptionRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	idempotencyRepo := postgresql.NewIdempotencyRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	financeRepo := postgresql.NewFinanceRepository(db)

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()
	matcher := facematch.NewClient(cfg.FaceMatch.URL, cfg.FaceMatch.Timeout, cfg.FaceMatch.Tolerance)
	fileService := file.NewFileService(fileStorage)

	authService := serviceAuth.NewAuthService(userRepo, JWTService)
	shiftSvc := shiftService.NewShiftService(shiftRepo, assignmentRepo, exceptionRepo, location, cfg.App.BaseURL)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo, faceRepo, txManager, matcher, fileService)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		idempotencyRepo,
		employeeRepo,
		faceRepo,
		shiftSvc,
		matcher,
		geoValidator,
		fileService,
		txManager,
		hub,
		location,
		cfg.App.BaseURL,
	)
	payrollSvc := payrollService.NewPayrollService(payrollRepo, attendanceRepo, employeeRepo, txManager, location)
	financeSvc := financeService.NewFinanceService(financeRepo, location)

	if cfg.Admin.Username != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			UploadsDir:     cfg.Storage.Path,
		},
		JWTService,
		appHTTP.NewAuthHandler(JWTService, authService),
		appHTTP.NewAttendanceHandler(attendanceSvc, JWTService, hub),
		appHTTP.NewShiftHandler(shiftSvc),
		appHTTP.NewEmployeeHandler(employeeSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewFinanceHandler(financeSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr, "timezone", location.String(), "sites", len(cfg.Sites))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
