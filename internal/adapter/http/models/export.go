package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ExportItemRequest struct {
	ProductID string           `json:"productId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type CreateExportRequest struct {
	AgencyID string              `json:"agencyId"`
	Date     *time.Time          `json:"date,omitempty"`
	Items    []ExportItemRequest `json:"items"`
}

func (r CreateExportRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.AgencyID) == "" {
		errs = append(errs, "agencyId is required")
	}
	if len(r.Items) == 0 {
		errs = append(errs, "items must not be empty")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			errs = append(errs, itemField(i, "productId is required"))
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, itemField(i, "quantity must be greater than zero"))
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			errs = append(errs, itemField(i, "unitPrice cannot be negative"))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func itemField(index int, message string) string {
	return "items[" + strconv.Itoa(index) + "]: " + message
}

type ExportItemPayload struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

type ExportReceiptPayload struct {
	Code        string              `json:"code"`
	Date        time.Time           `json:"date"`
	Items       []ExportItemPayload `json:"items"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
}

type AgencyPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CurrentDebt decimal.Decimal `json:"currentDebt"`
}

type CreateExportResponse struct {
	Receipt ExportReceiptPayload `json:"receipt"`
	Agency  AgencyPayload        `json:"agency"`
}
