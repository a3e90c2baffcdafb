package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"procurement/models"
)

const awardSheet = "Award"

// buildAwardReport собирает книгу с одной строкой на каждое выигравшее
// предложение; поставщик разрешается через реестр закупки
func buildAwardReport(p *models.Procurement) (*excelize.File, error) {
	wb := excelize.NewFile()
	index, err := wb.NewSheet(awardSheet)
	if err != nil {
		return nil, err
	}
	wb.SetActiveSheet(index)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Lot", "Supplier", "Organization code", "Address", "Tax registered", "Insolvent", "Bid time"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := wb.SetCellValue(awardSheet, cell, title); err != nil {
			return nil, err
		}
	}

	row := 2
	for li := range p.Lots {
		lot := &p.Lots[li]
		for _, bid := range lot.WinningBids() {
			supplierName := fmt.Sprintf("unknown supplier %d", bid.SupplierID)
			orgCode, address := "", ""
			taxRegistered, insolvent := false, false
			if supplier, ok := p.SupplierByID(bid.SupplierID); ok {
				supplierName = supplier.Name
				orgCode = supplier.OrganizationCode
				address = supplier.AddressLine()
				taxRegistered = supplier.TaxRegistered
				insolvent = supplier.Insolvent
			}
			values := []interface{}{lot.Name, supplierName, orgCode, address, taxRegistered, insolvent, bid.Time}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := wb.SetCellValue(awardSheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}
	return wb, nil
}

// AwardReportHandler обрабатывает GET /api/procurements/{procurementId}/report
// и отдает .xlsx отчет по выигравшим предложениям
func (h *Handler) AwardReportHandler(w http.ResponseWriter, r *http.Request) {
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

	wb, err := buildAwardReport(p)
	if err != nil {
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	defer wb.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="award-report-%d.xlsx"`, procurementID))
	if _, err := wb.WriteTo(w); err != nil {
		http.Error(w, "Failed to write report", http.StatusInternalServerError)
		return
	}
}
