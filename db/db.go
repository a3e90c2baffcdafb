package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"procurement/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// ProcurementRecord — метаданные сохраненной закупки. Сам агрегат
// хранится каноническим JSON-документом в колонке document (jsonb),
// метаданные дублируются в колонках для фильтров и списков.
type ProcurementRecord struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Details        string    `db:"details" json:"details"`
	FormatVersion  string    `db:"format_version" json:"formatVersion"`
	OrganizationID int       `db:"organization_id" json:"organizationId"`
	SubmittedAt    string    `db:"submitted_at" json:"submittedAt"`
	Version        int       `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

func (s *Storage) CreateProcurement(ctx context.Context, p *models.Procurement) (*ProcurementRecord, error) {
	doc, err := p.ToDocument()
	if err != nil {
		return nil, err
	}
	rec := &ProcurementRecord{
		Name:           p.Name,
		Details:        p.Details,
		FormatVersion:  p.FormatVersion,
		OrganizationID: p.OrganizationID,
		SubmittedAt:    p.Time,
		Version:        1,
	}
	query := `
        INSERT INTO procurement
            (name, details, format_version, organization_id, submitted_at, document, version)
        VALUES
            ($1, $2, $3, $4, $5, $6, 1)
        RETURNING id, created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query,
		rec.Name, rec.Details, rec.FormatVersion, rec.OrganizationID, rec.SubmittedAt, doc).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Сохраняем первую версию снимка
	if err := s.SaveProcurementVersion(ctx, rec.ID, rec.Version, doc); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Storage) GetProcurement(ctx context.Context, id int) (*ProcurementRecord, *models.Procurement, error) {
	row := struct {
		ProcurementRecord
		Document []byte `db:"document"`
	}{}
	query := `SELECT * FROM procurement WHERE id=$1`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, nil, err
	}
	p, err := models.FromDocument(row.Document)
	if err != nil {
		return nil, nil, err
	}
	rec := row.ProcurementRecord
	return &rec, p, nil
}

// UpdateProcurement перезаписывает документ, поднимает версию записи и
// сохраняет снимок новой версии
func (s *Storage) UpdateProcurement(ctx context.Context, rec *ProcurementRecord, p *models.Procurement) error {
	doc, err := p.ToDocument()
	if err != nil {
		return err
	}
	rec.Version++
	query := `
        UPDATE procurement
        SET name=$1, details=$2, format_version=$3, organization_id=$4,
            submitted_at=$5, document=$6, version=$7, updated_at=NOW()
        WHERE id=$8`
	_, err = s.db.ExecContext(ctx, query,
		p.Name, p.Details, p.FormatVersion, p.OrganizationID, p.Time, doc, rec.Version, rec.ID)
	if err != nil {
		return err
	}
	return s.SaveProcurementVersion(ctx, rec.ID, rec.Version, doc)
}

func (s *Storage) DeleteProcurement(ctx context.Context, id int) error {
	query := `DELETE FROM procurement WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *Storage) GetProcurements(ctx context.Context, organizationIDs []int, limit, offset int) ([]ProcurementRecord, error) {
	baseQuery := `SELECT id, name, details, format_version, organization_id, submitted_at, version, created_at, updated_at FROM procurement`
	var args []interface{}
	filter := ""

	if len(organizationIDs) > 0 {
		placeholders := make([]string, len(organizationIDs))
		for i := range organizationIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		filter = fmt.Sprintf(" WHERE organization_id IN (%s)", strings.Join(placeholders, ", "))
		for _, v := range organizationIDs {
			args = append(args, v)
		}
	}

	query := baseQuery + filter + " ORDER BY name ASC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	records := []ProcurementRecord{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Storage) SaveProcurementVersion(ctx context.Context, procurementID, version int, document []byte) error {
	query := `
        INSERT INTO procurement_versions (procurement_id, version, document, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	_, err := s.db.ExecContext(ctx, query, procurementID, version, document)
	return err
}

func (s *Storage) GetProcurementVersion(ctx context.Context, procurementID, version int) (*models.Procurement, error) {
	var document []byte
	query := `
        SELECT document FROM procurement_versions
        WHERE procurement_id = $1 AND version = $2
    `
	if err := s.db.GetContext(ctx, &document, query, procurementID, version); err != nil {
		return nil, err
	}
	return models.FromDocument(document)
}
