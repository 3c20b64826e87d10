package repo_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type AgencyRepository interface {
	GetByID(ctx context.Context, id string) (domain.Agency, error)
	GetCreditType(ctx context.Context, id string) (domain.CreditType, error)
	List(ctx context.Context) ([]domain.Agency, error)
	// Delete removes the agency and cascades to its receipts and ledger
	// entries. Owned by the agency CRUD collaborator; exposed here because the
	// ledger must honor the cascade.
	Delete(ctx context.Context, id string) error
}

type ProductRepository interface {
	// GetByIDs resolves the requested products in one batch. Unresolved ids
	// are simply absent from the result map.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// PostingRepository commits the atomic write group for one financial event:
// the receipt, the agency balance move, and exactly one ledger entry. The
// balance move is a single conditional update that re-asserts the admission
// predicate, so two concurrent postings can never both pass against the same
// stale balance. Any failure rolls back the whole group.
type PostingRepository interface {
	// PostExport returns the stored receipt and ledger entry. Fails with
	// KindLimitExceeded when the ceiling predicate rejects the balance move,
	// KindNotFound when the agency row is gone, KindConflict on a receipt
	// code collision.
	PostExport(ctx context.Context, receipt domain.ExportReceipt, ceiling decimal.Decimal) (domain.ExportReceipt, domain.LedgerEntry, error)
	// PostPayment is the payment counterpart; the predicate rejects
	// collecting more than the outstanding debt.
	PostPayment(ctx context.Context, receipt domain.PaymentReceipt) (domain.PaymentReceipt, domain.LedgerEntry, error)
	CodeExists(ctx context.Context, kind domain.EventKind, code string) (bool, error)
}

type LedgerRepository interface {
	// LatestOnOrBefore returns the entry that reconstruction treats as
	// current at instant t: greatest EventDate ≤ t, entry ID breaking ties.
	LatestOnOrBefore(ctx context.Context, agencyID string, t time.Time) (domain.LedgerEntry, bool, error)
	// EntriesInWindow returns entries with start < EventDate ≤ end in
	// business-date order.
	EntriesInWindow(ctx context.Context, agencyID string, start, end time.Time) ([]domain.LedgerEntry, error)
	Latest(ctx context.Context, agencyID string) (domain.LedgerEntry, bool, error)
	DeleteByAgency(ctx context.Context, agencyID string) error
}

type ReceiptRepository interface {
	GetExportByCode(ctx context.Context, code string) (domain.ExportReceipt, error)
	GetPaymentByCode(ctx context.Context, code string) (domain.PaymentReceipt, error)
}
