package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"procurement/models"
)

// Handler оборачивает Storage для доступа к данным
type Handler struct {
	Store StorageInterface
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface) *Handler {
	return &Handler{Store: store}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// CreateProcurementHandler обрабатывает POST /api/procurements/new.
// Тело запроса — канонический JSON-документ закупки.
func (h *Handler) CreateProcurementHandler(w http.ResponseWriter, r *http.Request) {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	p, err := models.FromDocument(body)
	if err != nil {
		var schemaErr *models.SchemaError
		if errors.As(err, &schemaErr) {
			http.Error(w, schemaErr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Invalid document", http.StatusBadRequest)
		return
	}

	rec, err := h.Store.CreateProcurement(r.Context(), p)
	if err != nil {
		http.Error(w, "Failed to create procurement", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rec)
}
