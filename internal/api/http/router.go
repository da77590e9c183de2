// Package http exposes the booking and tour services as a JSON API.
package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"tourbooking-backend/internal/repository"
	"tourbooking-backend/internal/security"
	"tourbooking-backend/internal/service"
)

// Handler serves the public API.
type Handler struct {
	tours     service.TourService
	bookings  service.BookingService
	addOns    service.AddOnService
	reviews   service.ReviewService
	users     repository.UserRepository
	snapshots repository.WeatherSnapshotRepository
	emailLogs repository.EmailLogRepository
}

// Dependencies groups what the handlers call into.
type Dependencies struct {
	Tours     service.TourService
	Bookings  service.BookingService
	AddOns    service.AddOnService
	Reviews   service.ReviewService
	Users     repository.UserRepository
	Snapshots repository.WeatherSnapshotRepository
	EmailLogs repository.EmailLogRepository
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Tokens enables bearer authentication. Without it the caller id is
	// read from UserIDHeader.
	Tokens security.TokenManager
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		tours:     deps.Tours,
		bookings:  deps.Bookings,
		addOns:    deps.AddOns,
		reviews:   deps.Reviews,
		users:     deps.Users,
		snapshots: deps.Snapshots,
		emailLogs: deps.EmailLogs,
	}
}

// NewRouter builds the API router with request id, access log and panic
// recovery middleware.
func NewRouter(deps Dependencies) *mux.Router {
	h := NewHandler(deps)
	router := mux.NewRouter()
	router.Use(requestID, accessLog, recoverPanics)
	requireUser := authenticator{tokens: deps.Tokens}.requireUser

	router.HandleFunc("/healthz", healthz(deps.Ping)).Methods(http.MethodGet)
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/tours", requireUser(h.CreateTour)).Methods(http.MethodPost)
	api.HandleFunc("/tours/{id}", h.GetTour).Methods(http.MethodGet)
	api.HandleFunc("/tours/{id}", requireUser(h.UpdateTour)).Methods(http.MethodPut)
	api.HandleFunc("/tours/{id}/cancel", requireUser(h.CancelTour)).Methods(http.MethodPost)
	api.HandleFunc("/tours/{id}/weather", h.ListWeather).Methods(http.MethodGet)

	api.HandleFunc("/tours/{id}/add-ons", h.ListAddOns).Methods(http.MethodGet)
	api.HandleFunc("/tours/{id}/add-ons", requireUser(h.CreateAddOn)).Methods(http.MethodPost)
	api.HandleFunc("/tours/{id}/add-ons/{addOnID}", requireUser(h.UpdateAddOn)).Methods(http.MethodPut)

	api.HandleFunc("/tours/{id}/bookings", requireUser(h.CreateBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", requireUser(h.GetBooking)).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/cancel", requireUser(h.CancelBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/confirm", requireUser(h.ConfirmBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/review", requireUser(h.CreateReview)).Methods(http.MethodPost)

	api.HandleFunc("/me/emails", requireUser(h.ListMyEmails)).Methods(http.MethodGet)

	return router
}

func healthz(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
