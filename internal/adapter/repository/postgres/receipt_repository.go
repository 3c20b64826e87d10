package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) GetExportByCode(ctx context.Context, code string) (domain.ExportReceipt, error) {
	const query = `
SELECT id, agency_id, code, issued_at, total_amount, created_at
FROM export_receipts
WHERE code = $1`

	var receipt domain.ExportReceipt
	if err := r.db.QueryRowContext(ctx, query, code).Scan(
		&receipt.ID,
		&receipt.AgencyID,
		&receipt.Code,
		&receipt.IssuedAt,
		&receipt.TotalAmount,
		&receipt.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ExportReceipt{}, domain.Ef(domain.KindNotFound, "receipt %s not found", code)
		}
		return domain.ExportReceipt{}, domain.Wrap(domain.KindInternal, "load export receipt", err)
	}

	items, err := r.loadItems(ctx, receipt.ID)
	if err != nil {
		return domain.ExportReceipt{}, err
	}
	receipt.Items = items

	return receipt, nil
}

func (r *ReceiptRepository) GetPaymentByCode(ctx context.Context, code string) (domain.PaymentReceipt, error) {
	const query = `
SELECT id, agency_id, code, issued_at, amount_paid, created_at
FROM payment_receipts
WHERE code = $1`

	var receipt domain.PaymentReceipt
	if err := r.db.QueryRowContext(ctx, query, code).Scan(
		&receipt.ID,
		&receipt.AgencyID,
		&receipt.Code,
		&receipt.IssuedAt,
		&receipt.AmountPaid,
		&receipt.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PaymentReceipt{}, domain.Ef(domain.KindNotFound, "receipt %s not found", code)
		}
		return domain.PaymentReceipt{}, domain.Wrap(domain.KindInternal, "load payment receipt", err)
	}

	return receipt, nil
}

func (r *ReceiptRepository) loadItems(ctx context.Context, receiptID string) ([]domain.ExportItem, error) {
	const query = `
SELECT product_id, product_name, unit, quantity, unit_price, amount
FROM export_receipt_items
WHERE receipt_id = $1
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, receiptID)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "load receipt items", err)
	}
	defer rows.Close()

	var items []domain.ExportItem
	for rows.Next() {
		var item domain.ExportItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Unit, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, domain.Wrap(domain.KindInternal, "scan receipt item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "load receipt items", err)
	}

	return items, nil
}
