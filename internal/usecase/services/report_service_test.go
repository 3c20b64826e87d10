package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/models"
	"github.com/exportdesk/debt-ledger/internal/adapter/repository/memory"
	"github.com/exportdesk/debt-ledger/internal/domain"
)

func tp(t time.Time) *time.Time { return &t }

type reportFixture struct {
	store   *memory.Store
	tx      *TransactionService
	reports *ReportService
	agency  domain.Agency
	riceID  string
}

func newReportFixture(t *testing.T, ceiling string) *reportFixture {
	t.Helper()

	store := memory.NewStore()
	ct := store.PutCreditType(domain.CreditType{Name: "standard", MaxDebt: d(ceiling)})
	agency := store.PutAgency(domain.Agency{
		Name:         "Harbor Exports",
		CreditTypeID: ct.ID,
		CurrentDebt:  decimal.Zero,
	})
	rice := store.PutProduct(domain.Product{Name: "Rice", Unit: "kg", Price: d("40")})

	return &reportFixture{
		store:   store,
		tx:      NewTransactionService(store, store, store, store, store, "EXP", "PAY"),
		reports: NewReportService(store, store),
		agency:  agency,
		riceID:  rice.ID,
	}
}

func (f *reportFixture) export(t *testing.T, agencyID, amount string, date time.Time) {
	t.Helper()
	_, err := f.tx.CreateExport(context.Background(), models.CreateExportRequest{
		AgencyID: agencyID,
		Date:     tp(date),
		Items:    []models.ExportItemRequest{{ProductID: f.riceID, Quantity: d("1"), UnitPrice: dp(amount)}},
	})
	require.NoError(t, err)
}

func (f *reportFixture) pay(t *testing.T, agencyID, amount string, date time.Time) {
	t.Helper()
	_, err := f.tx.CreatePayment(context.Background(), models.CreatePaymentRequest{
		AgencyID:   agencyID,
		Date:       tp(date),
		AmountPaid: d(amount),
	})
	require.NoError(t, err)
}

func day(dayOfMonth int) time.Time {
	return time.Date(2026, time.August, dayOfMonth, 12, 0, 0, 0, time.UTC)
}

func TestDebtReportReconstructsWindow(t *testing.T) {
	f := newReportFixture(t, "10000")

	f.export(t, f.agency.ID, "8000", day(10))
	f.pay(t, f.agency.ID, "5000", day(20))

	resp, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(5)),
		EndDate:   tp(day(25)),
	})
	require.NoError(t, err)
	require.Len(t, resp.Data.Rows, 1)

	row := resp.Data.Rows[0]
	assert.True(t, row.BeginningDebt.Equal(d("0")))
	assert.True(t, row.EndingDebt.Equal(d("3000")))
	// Negating the display convention: -(-8000 + 5000) = 3000 of debt growth.
	assert.True(t, row.PeriodChange.Equal(d("3000")))
	assert.Equal(t, "normal", row.Status)

	totals := resp.Data.Totals
	assert.True(t, totals.TotalEndingDebt.Equal(d("3000")))
	assert.True(t, totals.TotalChanges.Equal(d("3000")))
	assert.Equal(t, 0, totals.HighRiskCount)
}

func TestDebtReportCarriesOpeningBalanceIntoQuietWindows(t *testing.T) {
	f := newReportFixture(t, "10000")
	f.export(t, f.agency.ID, "4000", day(1))

	resp, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(10)),
		EndDate:   tp(day(20)),
	})
	require.NoError(t, err)

	row := resp.Data.Rows[0]
	assert.True(t, row.BeginningDebt.Equal(d("4000")))
	assert.True(t, row.EndingDebt.Equal(d("4000")))
	assert.True(t, row.PeriodChange.Equal(d("0")))
}

func TestDebtReportToleratesAgenciesWithNoHistory(t *testing.T) {
	f := newReportFixture(t, "10000")

	resp, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(1)),
		EndDate:   tp(day(28)),
	})
	require.NoError(t, err)
	require.Len(t, resp.Data.Rows, 1)

	row := resp.Data.Rows[0]
	assert.True(t, row.BeginningDebt.IsZero())
	assert.True(t, row.EndingDebt.IsZero())
	assert.True(t, row.PeriodChange.IsZero())
	assert.Equal(t, "normal", row.Status)
}

func TestDebtReportStatusThresholdsAndSorting(t *testing.T) {
	f := newReportFixture(t, "10000")
	unlimited := f.store.PutCreditType(domain.CreditType{Name: "unlimited", MaxDebt: decimal.Zero})

	risky := f.store.PutAgency(domain.Agency{Name: "Risky", CreditTypeID: f.agency.CreditTypeID})
	warned := f.store.PutAgency(domain.Agency{Name: "Warned", CreditTypeID: f.agency.CreditTypeID})
	whale := f.store.PutAgency(domain.Agency{Name: "Whale", CreditTypeID: unlimited.ID})

	f.export(t, risky.ID, "9000", day(5))
	f.export(t, warned.ID, "7000", day(5))
	f.export(t, whale.ID, "50000", day(5))
	f.export(t, f.agency.ID, "1000", day(5))

	resp, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(1)),
		EndDate:   tp(day(28)),
	})
	require.NoError(t, err)
	require.Len(t, resp.Data.Rows, 4)

	// Sorted by ending debt, largest first.
	assert.Equal(t, "Whale", resp.Data.Rows[0].AgencyName)
	assert.Equal(t, "Risky", resp.Data.Rows[1].AgencyName)
	assert.Equal(t, "Warned", resp.Data.Rows[2].AgencyName)

	byName := map[string]models.DebtReportRow{}
	for _, row := range resp.Data.Rows {
		byName[row.AgencyName] = row
	}
	assert.Equal(t, "high risk", byName["Risky"].Status)
	assert.Equal(t, "warning", byName["Warned"].Status)
	assert.Equal(t, "normal", byName["Harbor Exports"].Status)
	// Unlimited ceiling never ranks by ratio.
	assert.Equal(t, "normal", byName["Whale"].Status)
	assert.True(t, byName["Whale"].DebtRatio.IsZero())

	assert.Equal(t, 1, resp.Data.Totals.HighRiskCount)
	assert.True(t, resp.Data.Totals.TotalEndingDebt.Equal(d("67000")))
}

func TestDebtReportIsIdempotent(t *testing.T) {
	f := newReportFixture(t, "10000")
	f.export(t, f.agency.ID, "8000", day(10))
	f.pay(t, f.agency.ID, "5000", day(20))

	req := models.DebtReportRequest{StartDate: tp(day(1)), EndDate: tp(day(28))}

	first, err := f.reports.DebtReport(context.Background(), req)
	require.NoError(t, err)
	second, err := f.reports.DebtReport(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

// Window reconstruction orders by the user-supplied business date, so a
// backdated posting silently changes what earlier windows resolve to, and the
// backdated entry carries the commit-time balance snapshot. Reports generated
// before backdated activity must be re-run; this pins the accepted behavior.
func TestDebtReportBackdatedPostingShiftsOpeningBalance(t *testing.T) {
	f := newReportFixture(t, "10000")

	f.export(t, f.agency.ID, "1000", day(20))

	before, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(1)),
		EndDate:   tp(day(10)),
	})
	require.NoError(t, err)
	assert.True(t, before.Data.Rows[0].EndingDebt.IsZero())

	// Backdated export: business date inside the earlier window, balance
	// snapshot taken at commit time (1000 + 500).
	f.export(t, f.agency.ID, "500", day(5))

	after, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{
		StartDate: tp(day(1)),
		EndDate:   tp(day(10)),
	})
	require.NoError(t, err)
	assert.True(t, after.Data.Rows[0].EndingDebt.Equal(d("1500")))
	assert.True(t, after.Data.Rows[0].PeriodChange.Equal(d("500")))
}

func TestDebtReportCalendarModes(t *testing.T) {
	f := newReportFixture(t, "10000")
	// Monday 2026-08-31, 15:00 UTC.
	f.reports.now = func() time.Time {
		return time.Date(2026, time.August, 31, 15, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		mode      string
		wantStart time.Time
	}{
		{mode: "week", wantStart: time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)},
		{mode: "month", wantStart: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{mode: "year", wantStart: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			resp, err := f.reports.DebtReport(context.Background(), models.DebtReportRequest{Mode: tt.mode})
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(resp.Data.StartDate))
			assert.True(t, resp.Data.EndDate.Equal(time.Date(2026, time.August, 31, 15, 0, 0, 0, time.UTC)))
		})
	}
}

func TestDebtReportRejectsBadWindows(t *testing.T) {
	f := newReportFixture(t, "10000")

	tests := []struct {
		name string
		req  models.DebtReportRequest
	}{
		{name: "unknown mode", req: models.DebtReportRequest{Mode: "quarter"}},
		{name: "missing bounds", req: models.DebtReportRequest{StartDate: tp(day(1))}},
		{name: "inverted bounds", req: models.DebtReportRequest{StartDate: tp(day(10)), EndDate: tp(day(1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reports.DebtReport(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}
