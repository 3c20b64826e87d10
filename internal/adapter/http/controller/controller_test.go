package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/middleware"
	"github.com/exportdesk/debt-ledger/internal/adapter/http/models"
	"github.com/exportdesk/debt-ledger/internal/adapter/http/router"
	"github.com/exportdesk/debt-ledger/internal/adapter/repository/memory"
	"github.com/exportdesk/debt-ledger/internal/commons"
	"github.com/exportdesk/debt-ledger/internal/domain"
	"github.com/exportdesk/debt-ledger/internal/usecase/services"
)

const (
	testChannelID  = "desk-1"
	testChannelKey = "secret"
)

type apiFixture struct {
	handler http.Handler
	agency  domain.Agency
	riceID  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	ct := store.PutCreditType(domain.CreditType{Name: "standard", MaxDebt: decimal.NewFromInt(10000)})
	agency := store.PutAgency(domain.Agency{Name: "Harbor Exports", CreditTypeID: ct.ID})
	rice := store.PutProduct(domain.Product{Name: "Rice", Unit: "kg", Price: decimal.NewFromInt(40)})

	tx := services.NewTransactionService(store, store, store, store, store, "EXP", "PAY")
	reports := services.NewReportService(store, store)

	handler := router.New(
		NewTransactionController(tx),
		NewReportController(reports),
		middleware.ChannelAuth(testChannelID, testChannelKey),
		nil,
	)

	return &apiFixture{handler: handler, agency: agency, riceID: rice.ID}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.SetBasicAuth(testChannelID, testChannelKey)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) commons.Response[T] {
	t.Helper()
	var resp commons.Response[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func exportBody(f *apiFixture, quantity int64) models.CreateExportRequest {
	return models.CreateExportRequest{
		AgencyID: f.agency.ID,
		Items:    []models.ExportItemRequest{{ProductID: f.riceID, Quantity: decimal.NewFromInt(quantity)}},
	}
}

func TestExportEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/exports", exportBody(f, 100)) // 100 * 40 = 4000
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[models.CreateExportResponse](t, rec)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Regexp(t, `^EXP-\d{8}-[A-Z0-9]{5}$`, resp.Data.Receipt.Code)
	assert.True(t, resp.Data.Agency.CurrentDebt.Equal(decimal.NewFromInt(4000)))
}

func TestExportEndpointErrorStatuses(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name       string
		body       models.CreateExportRequest
		wantStatus int
		wantKind   domain.Kind
	}{
		{
			name:       "over the ceiling",
			body:       exportBody(f, 300), // 12000 > 10000
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   domain.KindLimitExceeded,
		},
		{
			name: "unknown agency",
			body: models.CreateExportRequest{
				AgencyID: "missing",
				Items:    []models.ExportItemRequest{{ProductID: f.riceID, Quantity: decimal.NewFromInt(1)}},
			},
			wantStatus: http.StatusNotFound,
			wantKind:   domain.KindNotFound,
		},
		{
			name:       "empty items",
			body:       models.CreateExportRequest{AgencyID: f.agency.ID},
			wantStatus: http.StatusBadRequest,
			wantKind:   domain.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/exports", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decodeInto[models.CreateExportResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantKind, resp.Kind)
		})
	}
}

func TestExportEndpointRejectsMalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString("{not json"))
	req.SetBasicAuth(testChannelID, testChannelKey)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeInto[models.CreateExportResponse](t, rec)
	assert.Equal(t, domain.KindValidation, resp.Kind)
}

func TestPaymentEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/exports", exportBody(f, 100)).Code)

	rec := f.do(t, http.MethodPost, "/payments", models.CreatePaymentRequest{
		AgencyID:   f.agency.ID,
		AmountPaid: decimal.NewFromInt(2500),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[models.CreatePaymentResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Agency.CurrentDebt.Equal(decimal.NewFromInt(1500)))

	// Collecting more than the outstanding debt is rejected.
	rec = f.do(t, http.MethodPost, "/payments", models.CreatePaymentRequest{
		AgencyID:   f.agency.ID,
		AmountPaid: decimal.NewFromInt(9999),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAgencyDebtAndReceiptLookup(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeInto[models.CreateExportResponse](t, f.do(t, http.MethodPost, "/exports", exportBody(f, 100)))
	require.NotNil(t, created.Data)

	rec := f.do(t, http.MethodGet, "/agencies/"+f.agency.ID+"/debt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	debt := decodeInto[models.AgencyDebtResponse](t, rec)
	require.NotNil(t, debt.Data)
	assert.True(t, debt.Data.Agency.CurrentDebt.Equal(decimal.NewFromInt(4000)))
	require.NotNil(t, debt.Data.LastEntry)
	assert.Equal(t, created.Data.Receipt.Code, debt.Data.LastEntry.DocumentCode)

	rec = f.do(t, http.MethodGet, "/receipts/"+created.Data.Receipt.Code, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lookup := decodeInto[models.ReceiptLookupResponse](t, rec)
	require.NotNil(t, lookup.Data)
	assert.Equal(t, string(domain.EventExport), lookup.Data.Kind)
	require.NotNil(t, lookup.Data.Export)
	assert.True(t, lookup.Data.Export.TotalAmount.Equal(decimal.NewFromInt(4000)))

	rec = f.do(t, http.MethodGet, "/receipts/EXP-20260101-ZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebtReportEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/exports", exportBody(f, 100)).Code)

	rec := f.do(t, http.MethodPost, "/reports/debt", models.DebtReportRequest{Mode: "month"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[models.DebtReportResponse](t, rec)
	require.NotNil(t, resp.Data)
	require.Len(t, resp.Data.Rows, 1)
	assert.True(t, resp.Data.Rows[0].EndingDebt.Equal(decimal.NewFromInt(4000)))

	rec = f.do(t, http.MethodPost, "/reports/debt", models.DebtReportRequest{Mode: "quarter"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutesRequireChannelAuth(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
