// Package api exposes the settlement engine over HTTP: JSON endpoints for
// every operation and a Server-Sent-Events stream for live settlement
// observation.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/middleware"
	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/service"
)

// Server is the TabSplit HTTP API server.
type Server struct {
	settlements *service.SettlementService
	accounts    *service.AccountService
	jwtManager  *auth.JWTManager
}

// NewServer creates the API server over the given services.
func NewServer(settlements *service.SettlementService, accounts *service.AccountService, jwtManager *auth.JWTManager) *Server {
	return &Server{settlements: settlements, accounts: accounts, jwtManager: jwtManager}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)
	r.Use(middleware.ResolveIdentity(s.jwtManager))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/me/payment-options", s.handleGetPaymentOptions)
		r.Put("/me/payment-options", s.handleSetPaymentOptions)
		r.Get("/me/receipts", s.handleListReceipts)
		r.Post("/me/receipts/{clientReceiptID}/archive", s.handleArchive)
		r.Post("/me/receipts/{clientReceiptID}/unarchive", s.handleUnarchive)
		r.Delete("/me/receipts/{clientReceiptID}", s.handleDestroy)

		r.Post("/receipts", s.handleCreateReceipt)
		r.Route("/receipts/{shareCode}", func(r chi.Router) {
			r.Get("/", s.handleGetReceipt)
			r.Post("/join", s.handleJoin)
			r.Get("/settlement", s.handleGetSettlement)
			r.Get("/settlement/live", s.handleObserveSettlement)
			r.Post("/claims", s.handleAdjustClaim)
			r.Put("/submission", s.handleSetSubmission)
			r.Delete("/participants/{participantKey}", s.handleRemoveParticipant)
			r.Post("/finalize", s.handleFinalize)
			r.Post("/payment", s.handleMarkPayment)
			r.Post("/payments/{participantKey}/confirm", s.handleConfirmPayment)
		})
	})

	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the domain error taxonomy onto HTTP status codes:
// validation 400, authorization 403, precondition violations 409, and
// not-found-ish conditions 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidShareCode),
		errors.Is(err, models.ErrUnknownItem),
		errors.Is(err, models.ErrNoIdentity),
		errors.Is(err, models.ErrEmptyReceipt),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotHost),
		errors.Is(err, models.ErrHostNotPayable):
		return http.StatusForbidden
	case errors.Is(err, models.ErrReceiptInactive):
		return http.StatusNotFound
	case errors.Is(err, models.ErrClaimsLocked),
		errors.Is(err, models.ErrAlreadyFinalized),
		errors.Is(err, models.ErrNotFinalized),
		errors.Is(err, models.ErrUnclaimedItems),
		errors.Is(err, models.ErrNotAllSubmitted),
		errors.Is(err, models.ErrNoParticipants),
		errors.Is(err, models.ErrNoHostPaymentOption),
		errors.Is(err, models.ErrNoPaymentDue),
		errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrCodeGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
