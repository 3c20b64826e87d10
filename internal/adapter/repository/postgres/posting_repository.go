package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/exportdesk/debt-ledger/internal/domain"
	"github.com/exportdesk/debt-ledger/internal/logger"
)

// PostingRepository commits the atomic write group for one financial event.
//
// The agency balance is moved by a single conditional UPDATE whose predicate
// re-asserts the admission rule (ceiling for exports, outstanding debt for
// payments). The UPDATE also takes the row lock first, so concurrent postings
// against the same agency serialize on it and can never both read the same
// stale balance. Receipt and ledger inserts ride in the same transaction;
// any failure rolls the whole group back.
type PostingRepository struct {
	db *sql.DB
}

func NewPostingRepository(db *sql.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

func (r *PostingRepository) PostExport(ctx context.Context, receipt domain.ExportReceipt, ceiling decimal.Decimal) (domain.ExportReceipt, domain.LedgerEntry, error) {
	var entry domain.LedgerEntry

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		newDebt, err := r.moveBalance(ctx, tx, receipt.AgencyID, receipt.TotalAmount, ceiling, domain.EventExport)
		if err != nil {
			return err
		}

		const insertReceipt = `
INSERT INTO export_receipts (agency_id, code, issued_at, total_amount)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
		if err := tx.QueryRowContext(ctx, insertReceipt,
			receipt.AgencyID, receipt.Code, receipt.IssuedAt, receipt.TotalAmount,
		).Scan(&receipt.ID, &receipt.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.Ef(domain.KindConflict, "receipt code %s already exists", receipt.Code)
			}
			return domain.Wrap(domain.KindInternal, "insert export receipt", err)
		}

		const insertItem = `
INSERT INTO export_receipt_items (receipt_id, product_id, product_name, unit, quantity, unit_price, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
		for _, item := range receipt.Items {
			if _, err := tx.ExecContext(ctx, insertItem,
				receipt.ID, item.ProductID, item.ProductName, item.Unit, item.Quantity, item.UnitPrice, item.Amount,
			); err != nil {
				return domain.Wrap(domain.KindInternal, "insert export receipt item", err)
			}
		}

		entry, err = r.appendEntry(ctx, tx, domain.LedgerEntry{
			AgencyID:     receipt.AgencyID,
			Kind:         domain.EventExport,
			DocumentID:   receipt.ID,
			DocumentCode: receipt.Code,
			EventDate:    receipt.IssuedAt,
			Change:       domain.LedgerChange(domain.EventExport, receipt.TotalAmount),
			DebtAfter:    newDebt,
		})
		return err
	})
	if err != nil {
		return domain.ExportReceipt{}, domain.LedgerEntry{}, err
	}

	logger.Info("export posted", logger.Fields{
		"agencyId":  receipt.AgencyID,
		"code":      receipt.Code,
		"total":     receipt.TotalAmount.StringFixed(2),
		"debtAfter": entry.DebtAfter.StringFixed(2),
	})

	return receipt, entry, nil
}

func (r *PostingRepository) PostPayment(ctx context.Context, receipt domain.PaymentReceipt) (domain.PaymentReceipt, domain.LedgerEntry, error) {
	var entry domain.LedgerEntry

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		newDebt, err := r.moveBalance(ctx, tx, receipt.AgencyID, receipt.AmountPaid, decimal.Zero, domain.EventPayment)
		if err != nil {
			return err
		}

		const insertReceipt = `
INSERT INTO payment_receipts (agency_id, code, issued_at, amount_paid)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
		if err := tx.QueryRowContext(ctx, insertReceipt,
			receipt.AgencyID, receipt.Code, receipt.IssuedAt, receipt.AmountPaid,
		).Scan(&receipt.ID, &receipt.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.Ef(domain.KindConflict, "receipt code %s already exists", receipt.Code)
			}
			return domain.Wrap(domain.KindInternal, "insert payment receipt", err)
		}

		entry, err = r.appendEntry(ctx, tx, domain.LedgerEntry{
			AgencyID:     receipt.AgencyID,
			Kind:         domain.EventPayment,
			DocumentID:   receipt.ID,
			DocumentCode: receipt.Code,
			EventDate:    receipt.IssuedAt,
			Change:       domain.LedgerChange(domain.EventPayment, receipt.AmountPaid),
			DebtAfter:    newDebt,
		})
		return err
	})
	if err != nil {
		return domain.PaymentReceipt{}, domain.LedgerEntry{}, err
	}

	logger.Info("payment posted", logger.Fields{
		"agencyId":  receipt.AgencyID,
		"code":      receipt.Code,
		"amount":    receipt.AmountPaid.StringFixed(2),
		"debtAfter": entry.DebtAfter.StringFixed(2),
	})

	return receipt, entry, nil
}

func (r *PostingRepository) CodeExists(ctx context.Context, kind domain.EventKind, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM export_receipts WHERE code = $1)`
	if kind == domain.EventPayment {
		query = `SELECT EXISTS(SELECT 1 FROM payment_receipts WHERE code = $1)`
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, domain.Wrap(domain.KindInternal, "probe receipt code", err)
	}

	return exists, nil
}

// moveBalance is the one place the agency balance changes. The predicate
// embeds the admission rule so the check and the mutation are indivisible.
func (r *PostingRepository) moveBalance(ctx context.Context, tx *sql.Tx, agencyID string, amount, ceiling decimal.Decimal, kind domain.EventKind) (decimal.Decimal, error) {
	const exportQuery = `
UPDATE agencies
SET current_debt = current_debt + $2,
    updated_at = NOW()
WHERE id = $1
  AND ($3::numeric = 0 OR current_debt + $2 <= $3)
RETURNING current_debt`

	const paymentQuery = `
UPDATE agencies
SET current_debt = current_debt - $2,
    updated_at = NOW()
WHERE id = $1
  AND current_debt >= $2
RETURNING current_debt`

	var (
		newDebt decimal.Decimal
		err     error
	)
	if kind == domain.EventExport {
		err = tx.QueryRowContext(ctx, exportQuery, agencyID, amount, ceiling).Scan(&newDebt)
	} else {
		err = tx.QueryRowContext(ctx, paymentQuery, agencyID, amount).Scan(&newDebt)
	}
	if err == nil {
		return newDebt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, domain.Wrap(domain.KindInternal, "move agency balance", err)
	}

	// Predicate rejected or agency gone; tell them apart.
	var exists bool
	if probeErr := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM agencies WHERE id = $1)`, agencyID).Scan(&exists); probeErr != nil {
		return decimal.Zero, domain.Wrap(domain.KindInternal, "probe agency", probeErr)
	}
	if !exists {
		return decimal.Zero, domain.Ef(domain.KindNotFound, "agency %s not found", agencyID)
	}
	if kind == domain.EventExport {
		return decimal.Zero, domain.Ef(domain.KindLimitExceeded, "export of %s would exceed the debt ceiling of %s", amount.StringFixed(2), ceiling.StringFixed(2))
	}
	return decimal.Zero, domain.Ef(domain.KindLimitExceeded, "payment of %s exceeds the outstanding debt", amount.StringFixed(2))
}

func (r *PostingRepository) appendEntry(ctx context.Context, tx *sql.Tx, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	const query = `
INSERT INTO debt_ledger (agency_id, event_kind, document_id, document_code, event_date, change, debt_after)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

	if err := tx.QueryRowContext(ctx, query,
		entry.AgencyID, entry.Kind, entry.DocumentID, entry.DocumentCode, entry.EventDate, entry.Change, entry.DebtAfter,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return domain.LedgerEntry{}, domain.Wrap(domain.KindInternal, "append ledger entry", err)
	}

	return entry, nil
}

func (r *PostingRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.KindInternal, "begin posting transaction", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.Wrap(domain.KindInternal, "commit posting transaction", err)
	}

	return nil
}
