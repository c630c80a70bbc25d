package httpserver

import (
	"net/http"
	"time"

	"chronos-go/internal/config"
	"chronos-go/internal/transport/httpserver/handler"
	authmw "chronos-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, authenticator *authmw.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)
			if cfg.RateLimit.Enabled {
				r.Use(authmw.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware)
			}

			r.Post("/auth/login", handlers.Login)
			r.Get("/auth/yandex", handlers.YandexRedirect)
			r.Get("/auth/yandex/callback", handlers.YandexCallback)
			r.Post("/auth/logout", handlers.Logout)

			r.Get("/meetings/share/{token}", handlers.GetMeetingByShareToken)
			r.Get("/meetings/{id}", handlers.GetMeeting)
			r.Get("/meetings/{id}/participants", handlers.ListParticipants)
			r.Post("/meetings/{id}/participants", handlers.JoinMeeting)
			r.Get("/meetings/{id}/availability", handlers.ListAvailability)
			r.Get("/meetings/{id}/common-dates", handlers.CommonDates)
			r.Get("/meetings/{id}/votes", handlers.ListVotes)

			// Guests act on their own participant anonymously; ownership is
			// checked per participant.
			r.Route("/meetings/{id}/participants/{participantId}", func(r chi.Router) {
				r.Put("/availability", handlers.AddAvailability)
				r.Delete("/availability", handlers.RemoveAvailability)
				r.Post("/availability/series", handlers.AddAvailabilitySeries)
				r.Put("/vote", handlers.CastVote)
				r.Delete("/vote", handlers.RemoveVote)
			})

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireUser)

				r.Get("/auth/me", handlers.AuthMe)
				r.Post("/meetings", handlers.CreateMeeting)
				r.Get("/meetings/my", handlers.ListMyMeetings)
				r.Patch("/meetings/{id}/status", handlers.UpdateMeetingStatus)
				r.Get("/meetings/{id}/participation", handlers.GetParticipation)
				r.Post("/meetings/{id}/leave", handlers.LeaveMeeting)
			})
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
