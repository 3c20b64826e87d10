package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type AgencyRepository struct {
	db *sql.DB
}

func NewAgencyRepository(db *sql.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

func (r *AgencyRepository) GetByID(ctx context.Context, id string) (domain.Agency, error) {
	const query = `
SELECT id, name, district, credit_type_id, current_debt, created_at, updated_at
FROM agencies
WHERE id = $1`

	var agency domain.Agency
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&agency.ID,
		&agency.Name,
		&agency.District,
		&agency.CreditTypeID,
		&agency.CurrentDebt,
		&agency.CreatedAt,
		&agency.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agency{}, domain.Ef(domain.KindNotFound, "agency %s not found", id)
		}
		return domain.Agency{}, domain.Wrap(domain.KindInternal, "load agency", err)
	}

	return agency, nil
}

func (r *AgencyRepository) GetCreditType(ctx context.Context, id string) (domain.CreditType, error) {
	const query = `
SELECT id, name, max_debt, created_at
FROM credit_types
WHERE id = $1`

	var ct domain.CreditType
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&ct.ID, &ct.Name, &ct.MaxDebt, &ct.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CreditType{}, domain.Ef(domain.KindNotFound, "credit type %s not found", id)
		}
		return domain.CreditType{}, domain.Wrap(domain.KindInternal, "load credit type", err)
	}

	return ct, nil
}

func (r *AgencyRepository) List(ctx context.Context) ([]domain.Agency, error) {
	const query = `
SELECT id, name, district, credit_type_id, current_debt, created_at, updated_at
FROM agencies
ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "list agencies", err)
	}
	defer rows.Close()

	var agencies []domain.Agency
	for rows.Next() {
		var agency domain.Agency
		if err := rows.Scan(
			&agency.ID,
			&agency.Name,
			&agency.District,
			&agency.CreditTypeID,
			&agency.CurrentDebt,
			&agency.CreatedAt,
			&agency.UpdatedAt,
		); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "scan agency", err)
		}
		agencies = append(agencies, agency)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "list agencies", err)
	}

	return agencies, nil
}

// Delete cascades to receipts, items, and ledger entries through the schema's
// ON DELETE CASCADE foreign keys.
func (r *AgencyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return domain.Wrap(domain.KindInternal, "delete agency", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agency rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Ef(domain.KindNotFound, "agency %s not found", id)
	}

	return nil
}
