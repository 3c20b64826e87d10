package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryPayload struct {
	Kind         string          `json:"kind"`
	DocumentCode string          `json:"documentCode"`
	EventDate    time.Time       `json:"eventDate"`
	Change       decimal.Decimal `json:"change"`
	DebtAfter    decimal.Decimal `json:"debtAfter"`
}

type AgencyDebtResponse struct {
	Agency    AgencyPayload       `json:"agency"`
	LastEntry *LedgerEntryPayload `json:"lastEntry,omitempty"`
}

// ReceiptLookupResponse carries whichever receipt kind the code resolved to.
type ReceiptLookupResponse struct {
	Kind    string                 `json:"kind"`
	Export  *ExportReceiptPayload  `json:"export,omitempty"`
	Payment *PaymentReceiptPayload `json:"payment,omitempty"`
}
