package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExportReceipt records a shipment of goods on credit. Receipts are immutable
// once posted; there is no edit or void path. Items carry a snapshot of the
// product name, unit, and price at posting time so later catalog edits cannot
// retroactively alter historical receipts.
type ExportReceipt struct {
	ID          string
	AgencyID    string
	Code        string
	IssuedAt    time.Time
	Items       []ExportItem
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

type ExportItem struct {
	ProductID   string
	ProductName string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// PaymentReceipt records a collection of money from an agency.
type PaymentReceipt struct {
	ID         string
	AgencyID   string
	Code       string
	IssuedAt   time.Time
	AmountPaid decimal.Decimal
	CreatedAt  time.Time
}
