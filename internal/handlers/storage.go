package handlers

import (
	"context"

	"procurement/db"
	"procurement/models"
)

type StorageInterface interface {
	CreateProcurement(ctx context.Context, p *models.Procurement) (*db.ProcurementRecord, error)
	GetProcurement(ctx context.Context, id int) (*db.ProcurementRecord, *models.Procurement, error)
	UpdateProcurement(ctx context.Context, rec *db.ProcurementRecord, p *models.Procurement) error
	DeleteProcurement(ctx context.Context, id int) error
	GetProcurements(ctx context.Context, organizationIDs []int, limit, offset int) ([]db.ProcurementRecord, error)
	SaveProcurementVersion(ctx context.Context, procurementID, version int, document []byte) error
	GetProcurementVersion(ctx context.Context, procurementID, version int) (*models.Procurement, error)
}
