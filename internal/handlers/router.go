package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/config"
	"github.com/lotwise-io/lotwisego/internal/database"
	"github.com/lotwise-io/lotwisego/internal/events"
	"github.com/lotwise-io/lotwisego/internal/middleware"
)

// Router wraps the mux router, the database and the allocation engine
type Router struct {
	*mux.Router
	db        *database.DB
	cfg       *config.Config
	hub       *events.Hub
	selector  *allocation.Selector
	confirmer *allocation.Confirmer
	suggestor *allocation.Suggestor
	lotOps    *allocation.LotOps
}

// Engine bundles the allocation engine services the routes expose
type Engine struct {
	Selector  *allocation.Selector
	Confirmer *allocation.Confirmer
	Suggestor *allocation.Suggestor
	LotOps    *allocation.LotOps
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, hub *events.Hub, engine Engine) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		cfg:       cfg,
		hub:       hub,
		selector:  engine.Selector,
		confirmer: engine.Confirmer,
		suggestor: engine.Suggestor,
		lotOps:    engine.LotOps,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Event stream (websocket)
	r.HandleFunc("/ws/events", func(w http.ResponseWriter, req *http.Request) {
		events.ServeWs(hub, w, req)
	})

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	api.HandleFunc("/lots", r.listLots).Methods("GET")
	api.HandleFunc("/lots", r.receiveLot).Methods("POST")
	api.HandleFunc("/lots/{id}", r.getLot).Methods("GET")
	api.HandleFunc("/lots/{id}/withdraw", r.withdrawLot).Methods("POST")
	api.HandleFunc("/lots/{id}/lock", r.lockLot).Methods("POST")
	api.HandleFunc("/lots/labels", r.lotLabels).Methods("POST")

	api.HandleFunc("/candidates", r.previewCandidates).Methods("GET")

	api.HandleFunc("/reservations", r.createReservation).Methods("POST")
	api.HandleFunc("/reservations/{id}/bind", r.bindReservation).Methods("POST")
	api.HandleFunc("/reservations/{id}/confirm", r.confirmReservation).Methods("POST")
	api.HandleFunc("/reservations/{id}/release", r.releaseReservation).Methods("POST")
	api.HandleFunc("/reservations/{id}/reverse", r.reverseReservation).Methods("POST")
	api.HandleFunc("/reservations/confirm-batch", r.confirmBatch).Methods("POST")

	api.HandleFunc("/suggestions/regenerate", r.regenerateSuggestions).Methods("POST")
	api.HandleFunc("/suggestions", r.listSuggestions).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondEngineError maps engine error kinds onto HTTP statuses
func respondEngineError(w http.ResponseWriter, err error) {
	var nf *allocation.NotFoundError
	if errors.As(err, &nf) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	switch allocation.CodeOf(err) {
	case allocation.CodeInvalidInput:
		respondError(w, http.StatusBadRequest, err.Error())
	case allocation.CodeStateViolation, allocation.CodeInsufficientStock:
		respondError(w, http.StatusConflict, err.Error())
	case allocation.CodeAckFailed:
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
