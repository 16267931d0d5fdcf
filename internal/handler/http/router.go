package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/shiftsense/attendance-backend-go/internal/config"
	"github.com/shiftsense/attendance-backend-go/internal/handler/http/middleware"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/jwt"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	attendanceHandler AttendanceHandler,
	deviceHandler DeviceHandler,
	absenceHandler AbsenceHandler,
	streamHandler StreamHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Device ingestion authenticates with the shared API key, not JWT.
		r.Route("/device", func(r chi.Router) {
			r.Use(middleware.DeviceKey(cfg.Device.APIKeyHash))
			r.Post("/events", deviceHandler.Ingest)
		})

		// SSE connections carry their own short-lived token.
		r.Get("/stream/{view}", streamHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/time-in", attendanceHandler.TimeIn)
				r.Post("/time-out", attendanceHandler.TimeOut)
				r.Post("/break-in", attendanceHandler.BreakIn)
				r.Post("/break-out", attendanceHandler.BreakOut)
				r.Get("/my", attendanceHandler.GetMy)
			})

			r.Post("/absence/sweep", absenceHandler.RunSweep)
			r.Post("/stream/token", streamHandler.GetStreamToken)
		})
	})
	return r
}
