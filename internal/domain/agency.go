package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agency is a customer entity that accrues debt via exports and reduces it via
// payments. CurrentDebt is a cache of the latest ledger entry's DebtAfter,
// maintained exclusively by posting transactions; the debt ledger is the
// source of truth.
type Agency struct {
	ID           string
	Name         string
	District     string
	CreditTypeID string
	CurrentDebt  decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreditType supplies the ceiling for all agencies assigned to it.
// A MaxDebt of zero means the ceiling is unlimited.
type CreditType struct {
	ID        string
	Name      string
	MaxDebt   decimal.Decimal
	CreatedAt time.Time
}
