package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Metrics is mounted at /metrics when set
	Metrics http.Handler
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	holidayHandler HolidayHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	ja := JWTService.JWTAuth()

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(ja))
			r.Use(middleware.AuthRequired)

			r.Route("/pay-periods", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollViewAll)).Get("/", payrollHandler.ListPayPeriods)
				r.With(middleware.RequirePermission(user.PermissionPayrollManage)).Post("/", payrollHandler.CreatePayPeriod)

				r.Route("/{id}", func(r chi.Router) {
					// Read
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollViewAll))
						r.Get("/", payrollHandler.GetPayPeriod)
						r.Get("/calculations", payrollHandler.ListCalculations)
						r.Get("/export", payrollHandler.Export)
					})

					// Manage
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollManage))
						r.Put("/", payrollHandler.UpdatePayPeriod)
						r.Delete("/", payrollHandler.DeletePayPeriod)
						r.Post("/calculate", payrollHandler.CalculatePayroll)
					})

					r.With(middleware.RequirePermission(user.PermissionPayrollApprove)).Post("/mark-paid", payrollHandler.MarkAsPaid)
				})
			})

			r.Route("/pay-calculations/{id}", func(r chi.Router) {
				// Ownership is checked in the handler
				r.With(middleware.RequirePermission(user.PermissionPayrollViewOwn)).Get("/", payrollHandler.GetCalculation)
				r.With(middleware.RequirePermission(user.PermissionPayrollManage)).Post("/adjustments", payrollHandler.AddAdjustment)
			})

			r.With(middleware.RequirePermission(user.PermissionHolidayView)).Get("/holidays", holidayHandler.List)
		})

		// EventSource cannot set headers, so the token may also come as ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(ja, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequirePermission(user.PermissionPayrollViewAll))
			r.Get("/events", notificationHandler.Stream)
		})
	})
	return r
}
