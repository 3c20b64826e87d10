package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/models"
	"github.com/exportdesk/debt-ledger/internal/adapter/repository/repo_interfaces"
	"github.com/exportdesk/debt-ledger/internal/commons"
	"github.com/exportdesk/debt-ledger/internal/domain"
	"github.com/exportdesk/debt-ledger/internal/logger"
	"github.com/exportdesk/debt-ledger/internal/observability"
)

const (
	statusNormal   = "normal"
	statusWarning  = "warning"
	statusHighRisk = "high risk"
)

var (
	warningRatio  = decimal.NewFromFloat(0.7)
	highRiskRatio = decimal.NewFromFloat(0.9)
)

const reportConcurrency = 8

// ReportService reconstructs historical balances from the debt ledger alone.
// It never reads the cached agency balance and never writes; reports over a
// quiet ledger are idempotent.
type ReportService struct {
	agencyRepo repo_interfaces.AgencyRepository
	ledgerRepo repo_interfaces.LedgerRepository
	now        func() time.Time
}

func NewReportService(agencyRepo repo_interfaces.AgencyRepository, ledgerRepo repo_interfaces.LedgerRepository) *ReportService {
	return &ReportService{
		agencyRepo: agencyRepo,
		ledgerRepo: ledgerRepo,
		now:        time.Now,
	}
}

func (s *ReportService) DebtReport(ctx context.Context, req models.DebtReportRequest) (commons.Response[models.DebtReportResponse], error) {
	logger.Info("report service debt report", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		tagged := domain.E(domain.KindValidation, err.Error())
		return commons.FromError[models.DebtReportResponse](tagged), tagged
	}

	start, end := s.resolveWindow(req)

	agencies, err := s.agencyRepo.List(ctx)
	if err != nil {
		return commons.FromError[models.DebtReportResponse](err), err
	}

	ceilings := make(map[string]decimal.Decimal, len(agencies))
	for _, agency := range agencies {
		if _, ok := ceilings[agency.CreditTypeID]; ok {
			continue
		}
		creditType, err := s.agencyRepo.GetCreditType(ctx, agency.CreditTypeID)
		if err != nil {
			return commons.FromError[models.DebtReportResponse](err), err
		}
		ceilings[agency.CreditTypeID] = creditType.MaxDebt
	}

	rows := make([]models.DebtReportRow, len(agencies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, agency := range agencies {
		i, agency := i, agency
		g.Go(func() error {
			row, err := s.reconstructRow(gctx, agency, ceilings[agency.CreditTypeID], start, end)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return commons.FromError[models.DebtReportResponse](err), err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EndingDebt.GreaterThan(rows[j].EndingDebt)
	})

	totals := models.DebtReportTotals{
		TotalBeginningDebt: decimal.Zero,
		TotalEndingDebt:    decimal.Zero,
		TotalChanges:       decimal.Zero,
	}
	for _, row := range rows {
		totals.TotalBeginningDebt = totals.TotalBeginningDebt.Add(row.BeginningDebt)
		totals.TotalEndingDebt = totals.TotalEndingDebt.Add(row.EndingDebt)
		totals.TotalChanges = totals.TotalChanges.Add(row.PeriodChange)
		if row.Status == statusHighRisk {
			totals.HighRiskCount++
		}
	}

	observability.ReportRuns.Inc()

	response := models.DebtReportResponse{
		StartDate: start,
		EndDate:   end,
		Rows:      rows,
		Totals:    totals,
	}
	return commons.SuccessResponse("debt report", response), nil
}

// reconstructRow computes one agency's report line purely from ledger reads:
// opening balance at the window start, closing balance at the window end, and
// the net debt movement inside the window. Agencies with no history report
// zeros throughout.
func (s *ReportService) reconstructRow(ctx context.Context, agency domain.Agency, ceiling decimal.Decimal, start, end time.Time) (models.DebtReportRow, error) {
	row := models.DebtReportRow{
		AgencyID:      agency.ID,
		AgencyName:    agency.Name,
		BeginningDebt: decimal.Zero,
		EndingDebt:    decimal.Zero,
		PeriodChange:  decimal.Zero,
		DebtRatio:     decimal.Zero,
	}

	opening, ok, err := s.ledgerRepo.LatestOnOrBefore(ctx, agency.ID, start)
	if err != nil {
		return models.DebtReportRow{}, err
	}
	if ok {
		row.BeginningDebt = opening.DebtAfter
	}

	closing, ok, err := s.ledgerRepo.LatestOnOrBefore(ctx, agency.ID, end)
	if err != nil {
		return models.DebtReportRow{}, err
	}
	if ok {
		row.EndingDebt = closing.DebtAfter
	} else {
		row.EndingDebt = row.BeginningDebt
	}

	window, err := s.ledgerRepo.EntriesInWindow(ctx, agency.ID, start, end)
	if err != nil {
		return models.DebtReportRow{}, err
	}
	for _, entry := range window {
		row.PeriodChange = row.PeriodChange.Add(domain.DebtDelta(entry.Change))
	}

	if ceiling.IsPositive() {
		row.DebtRatio = row.EndingDebt.Div(ceiling)
	}
	row.Status = ratioStatus(row.DebtRatio)

	return row, nil
}

func ratioStatus(ratio decimal.Decimal) string {
	switch {
	case ratio.GreaterThanOrEqual(highRiskRatio):
		return statusHighRisk
	case ratio.GreaterThanOrEqual(warningRatio):
		return statusWarning
	default:
		return statusNormal
	}
}

// resolveWindow turns a calendar mode into the period containing now (ISO
// week starting Monday, month from the 1st, year from Jan 1), ending at now.
func (s *ReportService) resolveWindow(req models.DebtReportRequest) (time.Time, time.Time) {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		return req.StartDate.UTC(), req.EndDate.UTC()
	}

	now := s.now().UTC()
	switch mode {
	case models.ReportModeWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
		return start, now
	case models.ReportModeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now
	default:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now
	}
}
