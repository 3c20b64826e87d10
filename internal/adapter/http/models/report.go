package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReportModeWeek  = "week"
	ReportModeMonth = "month"
	ReportModeYear  = "year"
)

// DebtReportRequest selects the reporting window either by calendar mode
// (the week/month/year containing now) or by explicit bounds.
type DebtReportRequest struct {
	Mode      string     `json:"mode,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (r DebtReportRequest) Validate() error {
	mode := strings.ToLower(strings.TrimSpace(r.Mode))
	if mode != "" {
		switch mode {
		case ReportModeWeek, ReportModeMonth, ReportModeYear:
			return nil
		default:
			return errors.New("mode must be one of week, month, year")
		}
	}

	if r.StartDate == nil || r.EndDate == nil {
		return errors.New("either mode or both startDate and endDate are required")
	}
	if r.EndDate.Before(*r.StartDate) {
		return errors.New("endDate cannot be before startDate")
	}
	return nil
}

type DebtReportRow struct {
	AgencyID      string          `json:"agencyId"`
	AgencyName    string          `json:"agencyName"`
	BeginningDebt decimal.Decimal `json:"beginningDebt"`
	EndingDebt    decimal.Decimal `json:"endingDebt"`
	PeriodChange  decimal.Decimal `json:"periodChange"`
	DebtRatio     decimal.Decimal `json:"debtRatio"`
	Status        string          `json:"status"`
}

type DebtReportTotals struct {
	TotalBeginningDebt decimal.Decimal `json:"totalBeginningDebt"`
	TotalEndingDebt    decimal.Decimal `json:"totalEndingDebt"`
	TotalChanges       decimal.Decimal `json:"totalChanges"`
	HighRiskCount      int             `json:"highRiskCount"`
}

type DebtReportResponse struct {
	StartDate time.Time        `json:"startDate"`
	EndDate   time.Time        `json:"endDate"`
	Rows      []DebtReportRow  `json:"rows"`
	Totals    DebtReportTotals `json:"totals"`
}
