package handlers_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"procurement/db"
	"procurement/internal/handlers"
	"procurement/internal/handlers/testutils"
	"procurement/models"
)

const docTime = "2024-06-10T00:00:00"

// MockStorage реализует StorageInterface
type MockStorage struct {
	rec                 *db.ProcurementRecord
	procurement         *models.Procurement
	createErr           error
	getErr              error
	updated             bool
	deleted             bool
	GetProcurementsFunc func(ctx context.Context, organizationIDs []int, limit, offset int) ([]db.ProcurementRecord, error)
}

func (m *MockStorage) CreateProcurement(ctx context.Context, p *models.Procurement) (*db.ProcurementRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &db.ProcurementRecord{ID: 1, Name: p.Name, OrganizationID: p.OrganizationID, Version: 1}, nil
}

func (m *MockStorage) GetProcurement(ctx context.Context, id int) (*db.ProcurementRecord, *models.Procurement, error) {
	if m.getErr != nil {
		return nil, nil, m.getErr
	}
	return m.rec, m.procurement, nil
}

func (m *MockStorage) UpdateProcurement(ctx context.Context, rec *db.ProcurementRecord, p *models.Procurement) error {
	m.updated = true
	rec.Version++
	return nil
}

func (m *MockStorage) DeleteProcurement(ctx context.Context, id int) error {
	m.deleted = true
	return nil
}

func (m *MockStorage) GetProcurements(ctx context.Context, organizationIDs []int, limit, offset int) ([]db.ProcurementRecord, error) {
	if m.GetProcurementsFunc != nil {
		return m.GetProcurementsFunc(ctx, organizationIDs, limit, offset)
	}
	return []db.ProcurementRecord{{ID: 1, Name: "Stockholm cleaning procurement"}}, nil
}

func (m *MockStorage) SaveProcurementVersion(ctx context.Context, procurementID, version int, document []byte) error {
	return nil
}

func (m *MockStorage) GetProcurementVersion(ctx context.Context, procurementID, version int) (*models.Procurement, error) {
	return m.procurement, nil
}

func testProcurement(t *testing.T) *models.Procurement {
	t.Helper()
	contact, err := models.NewContactPerson("Julie Svensson", "julie@alltvatt.se", "12345")
	require.NoError(t, err)
	alltvatt, err := models.NewSupplier(1, "Alltvätt", "Allvägen 1", "Norrtälje", "12345", "123456-1213", contact)
	require.NoError(t, err)
	stadAB, err := models.NewSupplier(2, "Städ AB", "Allvägen 2", "Norrtälje", "12345", "123456-1219", contact)
	require.NoError(t, err)

	winning, err := models.NewBid(1, nil, nil, docTime)
	require.NoError(t, err)
	winning.MarkWinner()
	losing, err := models.NewBid(2, nil, nil, docTime)
	require.NoError(t, err)

	lot, err := models.NewLot("Stockholm north", "municipality offices", winning, losing)
	require.NoError(t, err)

	p, err := models.NewProcurement("Stockholm cleaning procurement", "", docTime, 1,
		[]models.Lot{lot}, []models.Supplier{alltvatt, stadAB})
	require.NoError(t, err)
	return p
}

func newMockStore(t *testing.T) *MockStorage {
	t.Helper()
	return &MockStorage{
		rec:         &db.ProcurementRecord{ID: 1, Name: "Stockholm cleaning procurement", Version: 1},
		procurement: testProcurement(t),
	}
}

func TestPingHandler(t *testing.T) {
	handler := handlers.NewHandler(&MockStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	w := httptest.NewRecorder()

	handler.PingHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.Equal(t, "ok", w.Body.String())
}

func TestCreateProcurementHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	p := testProcurement(t)
	doc, err := p.ToDocument()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/procurements/new", bytes.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.CreateProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Stockholm cleaning procurement")
}

func TestCreateProcurementHandlerSchemaError(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	reqBody := `{"time": "2024-06-10T00:00:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/procurements/new", strings.NewReader(reqBody))
	w := httptest.NewRecorder()

	handler.CreateProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, string(body), "name")
}

func TestGetProcurementsHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/procurements?organization_id=1", nil)
	w := httptest.NewRecorder()

	handler.GetProcurementsHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "Stockholm cleaning procurement")
}

func TestGetProcurementHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/procurements/1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.GetProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"suppliers"`)
	require.Contains(t, string(body), `"format_version"`)
}

func TestValidateProcurementHandlerValid(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/procurements/1/validate", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.ValidateProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"valid":true`)
	require.Contains(t, string(body), `"failures":[]`)
}

func TestValidateProcurementHandlerFailures(t *testing.T) {
	store := newMockStore(t)
	supplier, ok := store.procurement.SupplierByID(1)
	require.True(t, ok)
	supplier.Insolvent = true
	handler := handlers.NewHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/procurements/1/validate", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.ValidateProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"valid":false`)
	require.Contains(t, string(body), `"type":"bid"`)
	require.Contains(t, string(body), "Alltvätt")
}

func TestValidateProcurementHandlerPolicy(t *testing.T) {
	store := newMockStore(t)
	// Второй победитель в том же лоте
	store.procurement.Lots[0].Bids[1].MarkWinner()
	handler := handlers.NewHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/procurements/1/validate?max_winners_per_lot=1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.ValidateProcurementHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"type":"lot"`)
	require.Contains(t, string(body), "at most 1")
}

func TestAwardBidHandler(t *testing.T) {
	store := newMockStore(t)
	handler := handlers.NewHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/api/procurements/1/lots/Stockholm%20north/award?supplier_id=2", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1", "lotName": "Stockholm north"})
	w := httptest.NewRecorder()

	handler.AwardBidHandler(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.True(t, store.updated)
	require.True(t, store.procurement.Lots[0].Bids[1].Winner)
}

func TestAwardBidHandlerUnknownLot(t *testing.T) {
	store := newMockStore(t)
	handler := handlers.NewHandler(store)

	req := httptest.NewRequest(http.MethodPut, "/api/procurements/1/lots/Stockholm%20west/award?supplier_id=2", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1", "lotName": "Stockholm west"})
	w := httptest.NewRecorder()

	handler.AwardBidHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	require.False(t, store.updated)
}

func TestDeleteProcurementHandler(t *testing.T) {
	store := newMockStore(t)
	handler := handlers.NewHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/procurements/1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.DeleteProcurementHandler(w, req)

	require.Equal(t, http.StatusNoContent, w.Result().StatusCode)
	require.True(t, store.deleted)
}

func TestGetProcurementVersionHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/procurements/1/versions/1", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1", "version": "1"})
	w := httptest.NewRecorder()

	handler.GetProcurementVersionHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"lots"`)
}

func TestAwardReportHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/procurements/1/report", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"procurementId": "1"})
	w := httptest.NewRecorder()

	handler.AwardReportHandler(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	wb, err := excelize.OpenReader(res.Body)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Award")
	require.NoError(t, err)
	// Заголовок плюс одна строка на выигравшее предложение
	require.Len(t, rows, 2)
	require.Equal(t, "Lot", rows[0][0])
	require.Equal(t, "Stockholm north", rows[1][0])
	require.Equal(t, "Alltvätt", rows[1][1])
}
