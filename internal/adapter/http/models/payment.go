package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	AgencyID   string          `json:"agencyId"`
	Date       *time.Time      `json:"date,omitempty"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
}

func (r CreatePaymentRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.AgencyID) == "" {
		errs = append(errs, "agencyId is required")
	}
	if r.AmountPaid.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amountPaid must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type PaymentReceiptPayload struct {
	Code       string          `json:"code"`
	Date       time.Time       `json:"date"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
}

type CreatePaymentResponse struct {
	Receipt PaymentReceiptPayload `json:"receipt"`
	Agency  AgencyPayload         `json:"agency"`
}
