package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/models"
	"github.com/exportdesk/debt-ledger/internal/commons"
	"github.com/exportdesk/debt-ledger/internal/domain"
)

type TransactionService interface {
	CreateExport(ctx context.Context, req models.CreateExportRequest) (commons.Response[models.CreateExportResponse], error)
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (commons.Response[models.CreatePaymentResponse], error)
	AgencyDebt(ctx context.Context, agencyID string) (commons.Response[models.AgencyDebtResponse], error)
	ReceiptByCode(ctx context.Context, code string) (commons.Response[models.ReceiptLookupResponse], error)
}

type TransactionController struct {
	service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(r chi.Router) {
	r.Post("/exports", c.createExport)
	r.Post("/payments", c.createPayment)
	r.Get("/agencies/{agencyID}/debt", c.agencyDebt)
	r.Get("/receipts/{code}", c.receiptByCode)
}

func (c *TransactionController) createExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.CreateExportResponse](domain.KindValidation, "invalid request body", err.Error()))
		logResponse(r, http.StatusBadRequest, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateExport(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		logError(r, err, nil)
		writeJSON(w, status, response)
		logResponse(r, status, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, start)
}

func (c *TransactionController) createPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.CreatePaymentResponse](domain.KindValidation, "invalid request body", err.Error()))
		logResponse(r, http.StatusBadRequest, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.CreatePayment(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		logError(r, err, nil)
		writeJSON(w, status, response)
		logResponse(r, status, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, start)
}

func (c *TransactionController) agencyDebt(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.AgencyDebt(r.Context(), chi.URLParam(r, "agencyID"))
	if err != nil {
		status := statusForError(err)
		logError(r, err, nil)
		writeJSON(w, status, response)
		logResponse(r, status, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, start)
}

func (c *TransactionController) receiptByCode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.ReceiptByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		status := statusForError(err)
		logError(r, err, nil)
		writeJSON(w, status, response)
		logResponse(r, status, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, start)
}
