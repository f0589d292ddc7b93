package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/handler/http/middleware"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// UploadsDir is served at /uploads to admins when set
	UploadsDir string
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	authHandler AuthHandler,
	attendanceHandler AttendanceHandler,
	shiftHandler ShiftHandler,
	employeeHandler EmployeeHandler,
	payrollHandler PayrollHandler,
	financeHandler FinanceHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.UploadsDir != "" {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireAdmin)
			r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
		})

		// EventSource authenticates with ?token= instead of a header
		r.Get("/attendance/stream", attendanceHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Post("/auth/sse-token", authHandler.SSEToken)
			r.With(middleware.RequireAdmin).Post("/auth/register", authHandler.Register)

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceToggle)).Post("/toggle", attendanceHandler.Toggle)
				r.With(middleware.RequirePermission(user.PermissionAttendanceToggle)).Post("/shifts/{qrToken}/toggle", attendanceHandler.ToggleByQR)
				r.Get("/qr/{qrToken}", attendanceHandler.QRLanding)
				r.Get("/records/{token}", attendanceHandler.GetByToken)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/my", attendanceHandler.MyHistory)

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", attendanceHandler.List)
				r.With(middleware.RequirePermission(user.PermissionAttendanceManual)).Post("/manual", attendanceHandler.Manual)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftView))
					r.Get("/current", shiftHandler.Current)
					r.Get("/schedule", shiftHandler.Schedule)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftManage))

					r.Route("/assignments", func(r chi.Router) {
						r.Get("/", shiftHandler.ListAssignments)
						r.Post("/", shiftHandler.CreateAssignment)
						r.Delete("/{id}", shiftHandler.DeleteAssignment)
					})

					r.Route("/exceptions", func(r chi.Router) {
						r.Get("/", shiftHandler.ListExceptions)
						r.Post("/", shiftHandler.CreateException)
						r.Delete("/{id}", shiftHandler.DeleteException)
					})

					r.Get("/", shiftHandler.List)
					r.Post("/", shiftHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", shiftHandler.Get)
						r.Put("/", shiftHandler.Update)
						r.Delete("/", shiftHandler.Delete)
					})
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionEmployeeManage))

				r.Get("/", employeeHandler.ListEmployees)
				r.Post("/", employeeHandler.CreateEmployee)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", employeeHandler.GetEmployee)
					r.Put("/", employeeHandler.UpdateEmployee)
					r.Get("/faces", employeeHandler.ListFaces)
					r.Post("/faces", employeeHandler.EnrollFace)
				})
			})

			r.Route("/payrolls", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionPayrollManage))

				r.Get("/", payrollHandler.List)
				r.Post("/", payrollHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.Get)
					r.Put("/", payrollHandler.Update)
					r.Delete("/", payrollHandler.Delete)
					r.Post("/regenerate", payrollHandler.Regenerate)
					r.Post("/recalculate", payrollHandler.Recalculate)
					r.Post("/absences", payrollHandler.MarkAbsent)
					r.Post("/approve", payrollHandler.Approve)
					r.Post("/pay", payrollHandler.Pay)
					r.Post("/cancel", payrollHandler.Cancel)
					r.Get("/payslip", payrollHandler.Payslip)
				})
			})

			r.Route("/finance", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionFinanceManage))

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", financeHandler.ListCategories)
					r.Post("/", financeHandler.CreateCategory)
					r.Post("/{id}/deactivate", financeHandler.DeactivateCategory)
				})

				r.Route("/expenses", func(r chi.Router) {
					r.Get("/", financeHandler.ListExpenses)
					r.Post("/", financeHandler.CreateExpense)
					r.Delete("/{id}", financeHandler.DeleteExpense)
					r.Post("/{id}/approve", financeHandler.ApproveExpense)
					r.Post("/{id}/reject", financeHandler.RejectExpense)
				})

				r.Route("/revenues", func(r chi.Router) {
					r.Get("/", financeHandler.ListRevenues)
					r.Post("/", financeHandler.CreateRevenue)
					r.Delete("/{id}", financeHandler.DeleteRevenue)
				})

				r.Get("/summary", financeHandler.Summary)
			})
		})
	})
	return r
}
