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

type ReportService interface {
	DebtReport(ctx context.Context, req models.DebtReportRequest) (commons.Response[models.DebtReportResponse], error)
}

type ReportController struct {
	service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{service: service}
}

func (c *ReportController) RegisterRoutes(r chi.Router) {
	r.Post("/reports/debt", c.debtReport)
}

func (c *ReportController) debtReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.DebtReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.DebtReportResponse](domain.KindValidation, "invalid request body", err.Error()))
		logResponse(r, http.StatusBadRequest, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.DebtReport(r.Context(), req)
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
