package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicware/scheduling/internal/appointment"
	"github.com/clinicware/scheduling/internal/user"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Users        *user.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	JWTSecret    []byte
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public auth endpoints
	r.Post("/auth/register", registerHandler(cfg.Users))
	r.Post("/auth/login", loginHandler(cfg.Users))

	// Everything below requires a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret))

		r.Get("/doctors", listDoctorsHandler(cfg.Users))

		r.Route("/users", func(r chi.Router) {
			r.With(RequireRole(user.RoleAdmin)).Get("/", listUsersHandler(cfg.Users))
			r.Get("/me", ownProfileHandler(cfg.Users))
			r.Get("/{id}", getProfileHandler(cfg.Users))
			r.Put("/{id}", updateUserHandler(cfg.Users))
			r.Post("/{id}/emergency-contacts", addEmergencyContactHandler(cfg.Users))
			r.Post("/{id}/medical-history", addMedicalHistoryHandler(cfg.Users))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/available-slots", availableSlotsHandler(cfg.Appointments))
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.With(RequireRole(user.RoleDoctor)).Get("/doctor", doctorDayHandler(cfg.Appointments))
			r.With(RequireRole(user.RoleDoctor)).Get("/doctor/completed", doctorCompletedHandler(cfg.Appointments))
			r.Get("/patient", ownHistoryHandler(cfg.Appointments))
			r.Get("/patient/{patientID}", patientHistoryHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Put("/{id}/status", updateStatusHandler(cfg.Appointments))
			r.With(RequireRole(user.RoleDoctor)).Post("/{id}/attention", recordAttentionHandler(cfg.Appointments))
			r.Get("/{id}/attention", getRecordHandler(cfg.Appointments))
			r.With(RequireRole(user.RoleAdmin)).Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(RequireRole(user.RoleDoctor))
			r.Get("/appointments", attendedReportHandler(cfg.Appointments))
			r.Get("/diseases", diseaseReportHandler(cfg.Appointments))
		})
	})

	return r
}
