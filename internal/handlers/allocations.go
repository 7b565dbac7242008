package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
)

// previewCandidates runs a lock-free candidate query for one product.
// Query params: product_id (required), policy, warehouse_id, safety_days,
// include_expired, include_locked, include_sample, include_adhoc, min_available.
func (r *Router) previewCandidates(w http.ResponseWriter, req *http.Request) {
	productID, err := strconv.ParseUint(req.URL.Query().Get("product_id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	policy := allocation.FEFO
	if p := req.URL.Query().Get("policy"); p != "" {
		policy = allocation.Policy(p)
		if policy != allocation.FEFO && policy != allocation.FIFO {
			respondError(w, http.StatusBadRequest, "policy must be FEFO or FIFO")
			return
		}
	}

	q := allocation.DefaultQuery(uint(productID), policy)
	qs := req.URL.Query()
	if v := qs.Get("warehouse_id"); v != "" {
		wid, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid warehouse_id")
			return
		}
		id := uint(wid)
		q.WarehouseID = &id
	}
	if v := qs.Get("safety_days"); v != "" {
		q.SafetyDays, _ = strconv.Atoi(v)
	}
	if qs.Get("include_expired") == "true" {
		q.ExcludeExpired = false
	}
	if qs.Get("include_locked") == "true" {
		q.ExcludeLocked = false
	}
	if qs.Get("include_sample") == "true" {
		q.IncludeSample = true
	}
	if qs.Get("include_adhoc") == "true" {
		q.IncludeAdhoc = true
	}
	if v := qs.Get("min_available"); v != "" {
		q.MinAvailable, _ = strconv.ParseFloat(v, 64)
	}

	candidates, err := r.selector.Select(req.Context(), q)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// CreateReservationRequest places a new soft hold
type CreateReservationRequest struct {
	LotID      *uint   `json:"lot_id,omitempty"`
	SourceType string  `json:"source_type"`
	SourceID   uint    `json:"source_id"`
	Quantity   float64 `json:"quantity"`
}

// createReservation places a soft hold: ACTIVE when a lot is given,
// TEMPORARY (forecast-only) when not
func (r *Router) createReservation(w http.ResponseWriter, req *http.Request) {
	var body CreateReservationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	source := models.ReservationSource(body.SourceType)
	switch source {
	case models.SourceOrder, models.SourceManual, models.SourceForecast:
	default:
		respondError(w, http.StatusBadRequest, "source_type must be order, manual or forecast")
		return
	}

	reservation, err := r.confirmer.Reserve(req.Context(), allocation.ReserveRequest{
		LotID:      body.LotID,
		SourceType: source,
		SourceID:   body.SourceID,
		Quantity:   body.Quantity,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reservation)
}

// BindRequest binds a temporary hold to a concrete lot
type BindRequest struct {
	LotID uint `json:"lot_id"`
}

// bindReservation moves a TEMPORARY forecast hold onto a concrete lot
func (r *Router) bindReservation(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation id")
		return
	}

	var body BindRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	reservation, err := r.confirmer.BindLot(req.Context(), id, body.LotID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reservation)
}

// confirmReservation runs the confirmation protocol for one reservation
func (r *Router) confirmReservation(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation id")
		return
	}

	if err := r.confirmer.Confirm(req.Context(), id); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": id,
		"status":         models.ReservationConfirmed,
	})
}

// releaseReservation cancels an ACTIVE or TEMPORARY hold
func (r *Router) releaseReservation(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation id")
		return
	}

	if err := r.confirmer.Release(req.Context(), id); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": id,
		"status":         models.ReservationReleased,
	})
}

// reverseReservation compensates a confirmed reservation, notifying the ERP
func (r *Router) reverseReservation(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reservation id")
		return
	}

	if err := r.confirmer.Reverse(req.Context(), id); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": id,
		"status":         models.ReservationReleased,
	})
}

// ConfirmBatchRequest confirms many reservations in one transaction
type ConfirmBatchRequest struct {
	ReservationIDs []uint `json:"reservation_ids"`
}

// confirmBatch confirms each reservation independently inside one commit
func (r *Router) confirmBatch(w http.ResponseWriter, req *http.Request) {
	var body ConfirmBatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body.ReservationIDs) == 0 {
		respondError(w, http.StatusBadRequest, "reservation_ids is required")
		return
	}

	result, err := r.confirmer.ConfirmBatch(req.Context(), body.ReservationIDs)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
