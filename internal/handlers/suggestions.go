package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
)

// RegenerateRequest identifies one demand scope to recompute
type RegenerateRequest struct {
	CustomerID      uint   `json:"customer_id"`
	DeliveryPlaceID uint   `json:"delivery_place_id"`
	ProductID       uint   `json:"product_id"`
	Period          string `json:"period,omitempty"`
	Policy          string `json:"policy,omitempty"`
}

// regenerateSuggestions replaces a scope's allocation suggestions
func (r *Router) regenerateSuggestions(w http.ResponseWriter, req *http.Request) {
	var body RegenerateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.CustomerID == 0 || body.DeliveryPlaceID == 0 || body.ProductID == 0 {
		respondError(w, http.StatusBadRequest, "customer_id, delivery_place_id and product_id are required")
		return
	}

	policy := allocation.FEFO
	if body.Policy != "" {
		policy = allocation.Policy(body.Policy)
		if policy != allocation.FEFO && policy != allocation.FIFO {
			respondError(w, http.StatusBadRequest, "policy must be FEFO or FIFO")
			return
		}
	}

	result, err := r.suggestor.Regenerate(req.Context(), allocation.Scope{
		CustomerID:      body.CustomerID,
		DeliveryPlaceID: body.DeliveryPlaceID,
		ProductID:       body.ProductID,
		Period:          body.Period,
	}, policy)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// listSuggestions returns the stored suggestions for a scope
func (r *Router) listSuggestions(w http.ResponseWriter, req *http.Request) {
	qs := req.URL.Query()
	query := r.db.Preload("Lot").Preload("Lot.LotMaster").Order("id")

	for _, key := range []string{"customer_id", "delivery_place_id", "product_id"} {
		v := qs.Get(key)
		if v == "" {
			respondError(w, http.StatusBadRequest, key+" is required")
			return
		}
		if _, err := strconv.ParseUint(v, 10, 32); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid "+key)
			return
		}
		query = query.Where(key+" = ?", v)
	}
	if v := qs.Get("period"); v != "" {
		query = query.Where("period = ?", v)
	}

	var suggestions []models.AllocationSuggestion
	if err := query.Find(&suggestions).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch suggestions")
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}
