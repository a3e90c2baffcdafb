package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"procurement/models"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 5 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// GetProcurementsHandler возвращает список закупок с фильтром по organization_id
func (h *Handler) GetProcurementsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	// Фильтр organization_id — может быть несколько через query param
	var organizationIDs []int
	for _, v := range r.URL.Query()["organization_id"] {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			organizationIDs = append(organizationIDs, id)
		}
	}

	records, err := h.Store.GetProcurements(r.Context(), organizationIDs, params.Limit, params.Offset)
	if err != nil {
		http.Error(w, "Failed to get procurements", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetProcurementHandler возвращает канонический документ закупки
func (h *Handler) GetProcurementHandler(w http.ResponseWriter, r *http.Request) {
	procurementID, err := strconv.Atoi(chi.URLParam(r, "procurementId"))
	if err != nil || procurementID <= 0 {
		http.Error(w, "Invalid procurementId", http.StatusBadRequest)
		return
	}

	_, p, err := h.Store.GetProcurement(r.Context(), procurementID)
	if err != nil {
		http.Error(w, "Procurement not found", http.StatusNotFound)
		return
	}

	doc, err := p.ToDocument()
	if err != nil {
		http.Error(w, "Failed to serialize procurement", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}

// GetProcurementVersionHandler возвращает документ сохраненного снимка версии
func (h *Handler) GetProcurementVersionHandler(w http.ResponseWriter, r *http.Request) {
	procurementID, err := strconv.Atoi(chi.URLParam(r, "procurementId"))
	if err != nil || procurementID <= 0 {
		http.Error(w, "Invalid procurementId", http.StatusBadRequest)
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	p, err := h.Store.GetProcurementVersion(r.Context(), procurementID, version)
	if err != nil {
		http.Error(w, "Version not found", http.StatusNotFound)
		return
	}

	doc, err := p.ToDocument()
	if err != nil {
		http.Error(w, "Failed to serialize procurement", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}

// DeleteProcurementHandler удаляет закупку вместе со снимками версий
func (h *Handler) DeleteProcurementHandler(w http.ResponseWriter, r *http.Request) {
	procurementID, err := strconv.Atoi(chi.URLParam(r, "procurementId"))
	if err != nil || procurementID <= 0 {
		http.Error(w, "Invalid procurementId", http.StatusBadRequest)
		return
	}

	if err := h.Store.DeleteProcurement(r.Context(), procurementID); err != nil {
		http.Error(w, "Failed to delete procurement", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidationFailure — нарушение в ответе эндпоинта валидации
type ValidationFailure struct {
	Type       string `json:"type"` // lot | bid | integrity
	Lot        string `json:"lot,omitempty"`
	Supplier   string `json:"supplier,omitempty"`
	SupplierID int    `json:"supplierId,omitempty"`
	Reason     string `json:"reason"`
}

func failureFromError(err error) ValidationFailure {
	switch e := err.(type) {
	case *models.LotError:
		return ValidationFailure{Type: "lot", Lot: e.LotName, Reason: e.Reason}
	case *models.BidError:
		return ValidationFailure{Type: "bid", Supplier: e.SupplierName, Reason: e.Reason}
	case *models.IntegrityError:
		return ValidationFailure{Type: "integrity", Lot: e.LotName, SupplierID: e.SupplierID, Reason: "bid references unknown supplier"}
	default:
		return ValidationFailure{Type: "unknown", Reason: err.Error()}
	}
}

// ValidateProcurementHandler запускает проверки присуждения для сохраненной
// закупки. Пустой список failures означает успех.
func (h *Handler) ValidateProcurementHandler(w http.ResponseWriter, r *http.Request) {
	procurementID, err := strconv.Atoi(chi.URLParam(r, "procurementId"))
	if err != nil || procurementID <= 0 {
		http.Error(w, "Invalid procurementId", http.StatusBadRequest)
		return
	}

	_, p, err := h.Store.GetProcurement(r.Context(), procurementID)
	if err != nil {
		http.Error(w, "Procurement not found", http.StatusNotFound)
		return
	}

	// Ограничение числа победителей — опциональная политика
	policy := models.Policy{}
	if maxStr := r.URL.Query().Get("max_winners_per_lot"); maxStr != "" {
		if m, err := strconv.Atoi(maxStr); err == nil && m > 0 {
			policy.MaxWinnersPerLot = m
		}
	}

	failures := []ValidationFailure{}
	for _, failure := range p.ValidateWithPolicy(policy) {
		failures = append(failures, failureFromError(failure))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"valid":    len(failures) == 0,
		"failures": failures,
	})
}

// AwardBidHandler обрабатывает PUT /api/procurements/{procurementId}/lots/{lotName}/award.
// Отмечает предложение поставщика supplier_id выигравшим и сохраняет
// новый снимок версии.
func (h *Handler) AwardBidHandler(w http.ResponseWriter, r *http.Request) {
	procurementID, err := strconv.Atoi(chi.URLParam(r, "procurementId"))
	if err != nil || procurementID <= 0 {
		http.Error(w, "Invalid procurementId", http.StatusBadRequest)
		return
	}
	lotName := chi.URLParam(r, "lotName")
	if lotName == "" {
		http.Error(w, "Missing lot name", http.StatusBadRequest)
		return
	}
	supplierID, err := strconv.Atoi(r.URL.Query().Get("supplier_id"))
	if err != nil || supplierID <= 0 {
		http.Error(w, "Invalid supplier_id", http.StatusBadRequest)
		return
	}

	rec, p, err := h.Store.GetProcurement(r.Context(), procurementID)
	if err != nil {
		http.Error(w, "Procurement not found", http.StatusNotFound)
		return
	}

	if err := p.MarkWinner(lotName, supplierID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Store.UpdateProcurement(r.Context(), rec, p); err != nil {
		http.Error(w, "Failed to update procurement", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
