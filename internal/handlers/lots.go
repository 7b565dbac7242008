package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lotwise-io/lotwisego/internal/allocation"
	"github.com/lotwise-io/lotwisego/internal/models"
	"github.com/lotwise-io/lotwisego/internal/services/printer"
)

// listLots returns lots, optionally filtered by product, warehouse or status
func (r *Router) listLots(w http.ResponseWriter, req *http.Request) {
	query := r.db.Preload("LotMaster").Preload("Product")

	if v := req.URL.Query().Get("product_id"); v != "" {
		query = query.Where("product_id = ?", v)
	}
	if v := req.URL.Query().Get("warehouse_id"); v != "" {
		query = query.Where("warehouse_id = ?", v)
	}
	if v := req.URL.Query().Get("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var lots []models.Lot
	if err := query.Order("id").Find(&lots).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch lots")
		return
	}
	respondJSON(w, http.StatusOK, lots)
}

// getLot returns one lot with its full quantity picture
func (r *Router) getLot(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid lot id")
		return
	}

	quantities, err := r.selector.PreviewQuantities(req.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	var lot models.Lot
	if err := r.db.Preload("LotMaster").Preload("Product").First(&lot, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Lot not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lot":        lot,
		"quantities": quantities,
	})
}

// ReceiveLotRequest books an inbound receipt
type ReceiveLotRequest struct {
	LotNumber   string     `json:"lot_number"`
	ProductID   uint       `json:"product_id"`
	WarehouseID uint       `json:"warehouse_id"`
	SupplierID  *uint      `json:"supplier_id,omitempty"`
	Quantity    float64    `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Origin      string     `json:"origin,omitempty"`
}

// receiveLot creates a new lot from an inbound receipt
func (r *Router) receiveLot(w http.ResponseWriter, req *http.Request) {
	var body ReceiveLotRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	lot, err := r.lotOps.Receive(req.Context(), allocation.ReceiveRequest{
		LotNumber:   body.LotNumber,
		ProductID:   body.ProductID,
		WarehouseID: body.WarehouseID,
		SupplierID:  body.SupplierID,
		Quantity:    body.Quantity,
		ExpiryDate:  body.ExpiryDate,
		Origin:      models.LotOrigin(body.Origin),
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lot)
}

// WithdrawRequest consumes quantity from a lot
type WithdrawRequest struct {
	Quantity    float64 `json:"quantity"`
	AllowLocked bool    `json:"allow_locked"`
}

// withdrawLot consumes quantity from a lot (shipment or internal usage)
func (r *Router) withdrawLot(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid lot id")
		return
	}

	var body WithdrawRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	lot, err := r.lotOps.Withdraw(req.Context(), id, body.Quantity, body.AllowLocked)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lot)
}

// LockRequest sets the administratively frozen quantity on a lot
type LockRequest struct {
	Quantity float64 `json:"quantity"`
}

// lockLot freezes (or unfreezes) part of a lot for inspection
func (r *Router) lockLot(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid lot id")
		return
	}

	var body LockRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	lot, err := r.lotOps.SetLockedQty(req.Context(), id, body.Quantity)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lot)
}

// LabelRequest asks for a printable label sheet
type LabelRequest struct {
	LotIDs []uint `json:"lot_ids"`
}

// lotLabels renders QR labels for the requested lots as a PDF sheet
func (r *Router) lotLabels(w http.ResponseWriter, req *http.Request) {
	var body LabelRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body.LotIDs) == 0 {
		respondError(w, http.StatusBadRequest, "lot_ids is required")
		return
	}

	var lots []models.Lot
	if err := r.db.Preload("LotMaster").Where("id IN ?", body.LotIDs).Find(&lots).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch lots")
		return
	}
	if len(lots) == 0 {
		respondError(w, http.StatusNotFound, "No matching lots")
		return
	}

	pdf, err := printer.GenerateLotLabelsPDF(printer.DefaultLabelConfig(), lots)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate labels")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=lot_labels.pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// pathID parses the {id} path variable
func pathID(req *http.Request) (uint, error) {
	raw := mux.Vars(req)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
