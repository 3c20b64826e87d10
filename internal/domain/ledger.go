package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventExport  EventKind = "EXPORT"
	EventPayment EventKind = "PAYMENT"
)

// LedgerEntry is one immutable record in the append-only debt ledger. Exactly
// one entry is written per committed receipt, inside the same transaction that
// moves the agency balance.
//
// Change follows the ledger's display convention: exports are recorded as the
// negative of the shipped value and payments as the positive of the amount
// collected, which is the inverse of each event's effect on CurrentDebt. All
// conversion between the two conventions goes through LedgerChange and
// DebtDelta; nothing else flips signs.
//
// EventDate is the user-supplied business date and may be backdated. Entry
// IDs grow in commit order, which is the ground truth for which DebtAfter was
// current at a given commit; window reconstruction orders by EventDate with ID
// as the tiebreaker.
type LedgerEntry struct {
	ID           int64
	AgencyID     string
	Kind         EventKind
	DocumentID   string
	DocumentCode string
	EventDate    time.Time
	Change       decimal.Decimal
	DebtAfter    decimal.Decimal
	CreatedAt    time.Time
}

// LedgerChange converts an event's monetary amount (always positive) into the
// ledger's display-signed Change value.
func LedgerChange(kind EventKind, amount decimal.Decimal) decimal.Decimal {
	if kind == EventExport {
		return amount.Neg()
	}
	return amount
}

// DebtDelta converts a display-signed Change back into the event's effect on
// the agency balance: positive when debt grew.
func DebtDelta(change decimal.Decimal) decimal.Decimal {
	return change.Neg()
}
